package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pedromiglou/JARR/app/database"
)

// NewServer wires the gin engine: access logging, recovery, etag
// short-circuiting and API-key auth on everything except /health.
func NewServer(handler *Handler, userRepo database.UserRepository) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())
	r.Use(etagMiddleware())

	setupRoutes(r, handler, userRepo)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, userRepo database.UserRepository) {
	r.GET("/health", handler.GetHealth)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})

	authed := r.Group("/")
	authed.Use(authMiddleware(userRepo))
	{
		authed.GET("/", handler.GetIndex)
		authed.GET("/menu", handler.GetMenu)
		authed.GET("/middle_panel", handler.GetMiddlePanel)

		authed.GET("/getclu/:cluster_id", handler.GetCluster)
		authed.GET("/getclu/:cluster_id/:parse", handler.GetCluster)
		authed.GET("/getclu/:cluster_id/:parse/:article_id", handler.GetCluster)

		authed.GET("/getart/:article_id", handler.GetArticle)
		authed.GET("/getart/:article_id/:parse", handler.GetArticle)

		authed.PUT("/mark_all_as_read", handler.MarkAllAsRead)

		authed.GET("/fetch", handler.Fetch)
		authed.GET("/fetch/:feed_id", handler.Fetch)
		authed.PUT("/reset_feeds", handler.ResetFeeds)

		authed.GET("/icon", handler.GetIcon)
	}
}
