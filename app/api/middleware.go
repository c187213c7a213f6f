package api

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pedromiglou/JARR/app/database"
)

const userContextKey = "user"

// authMiddleware resolves the calling user from the X-API-Key header or an
// Authorization Bearer token. Unknown keys and inactive accounts get the
// same rejection.
func authMiddleware(userRepo database.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		user, err := userRepo.GetByAPIKey(providedKey)
		if err != nil {
			slog.Error("Database error", "operation", "get_user_by_api_key", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			c.Abort()
			return
		}
		if user == nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *database.User {
	user, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	return user.(*database.User)
}

// etagWriter buffers the response so its fingerprint can be compared against
// If-None-Match before anything reaches the client.
type etagWriter struct {
	gin.ResponseWriter
	body        *bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *etagWriter) WriteHeader(code int) {
	w.status = code
	w.wroteHeader = true
}

// WriteHeaderNow is deferred until the buffered payload is fingerprinted.
func (w *etagWriter) WriteHeaderNow() {}

func (w *etagWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *etagWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *etagWriter) Status() int {
	return w.status
}

func (w *etagWriter) Size() int {
	return w.body.Len()
}

func (w *etagWriter) Written() bool {
	return w.wroteHeader || w.body.Len() > 0
}

// etagMiddleware answers 304 when the client already holds the exact payload
// a GET would produce.
func etagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		writer := &etagWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
			status:         http.StatusOK,
		}
		c.Writer = writer
		c.Next()
		c.Writer = writer.ResponseWriter

		body := writer.body.Bytes()

		if writer.status == http.StatusOK && len(body) > 0 {
			etag := fmt.Sprintf(`"%x"`, sha1.Sum(body))
			if c.Request.Header.Get("If-None-Match") == etag {
				writer.ResponseWriter.WriteHeader(http.StatusNotModified)
				return
			}
			writer.ResponseWriter.Header().Set("Etag", etag)
		}

		writer.ResponseWriter.WriteHeader(writer.status)
		if len(body) > 0 {
			writer.ResponseWriter.Write(body)
		}
	}
}
