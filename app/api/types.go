package api

import (
	"github.com/pedromiglou/JARR/app/cfg"
	"github.com/pedromiglou/JARR/app/crawler"
	"github.com/pedromiglou/JARR/app/database"
	"github.com/pedromiglou/JARR/app/icon"
	"github.com/pedromiglou/JARR/app/view"
)

// Handler carries the collaborators behind the HTTP routes. The cluster
// service answers the item routes by default, the article service backs the
// single-article ones.
type Handler struct {
	userRepo  database.UserRepository
	feedRepo  database.FeedRepository
	menu      *view.MenuBuilder
	clusters  view.ReadService
	articles  view.ReadService
	icons     *icon.Proxy
	scheduler crawler.TaskSchedulerInterface
	cfg       *cfg.Cfg
}

func NewHandler(userRepo database.UserRepository, feedRepo database.FeedRepository,
	menu *view.MenuBuilder, clusters view.ReadService, articles view.ReadService,
	icons *icon.Proxy, scheduler crawler.TaskSchedulerInterface, appCfg *cfg.Cfg) *Handler {
	return &Handler{
		userRepo:  userRepo,
		feedRepo:  feedRepo,
		menu:      menu,
		clusters:  clusters,
		articles:  articles,
		icons:     icons,
		scheduler: scheduler,
		cfg:       appCfg,
	}
}
