package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// ContentPath is where the content routes are mounted
const ContentPath = "/api/content"

// RouterOptions tunes NewRouter
type RouterOptions struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the full HTTP surface: middleware, health check and the
// content routes under ContentPath.
func NewRouter(service sitecontent.Service, opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger.Named("http")))
	r.Use(RecoveryMiddleware(logger))
	r.Use(CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Mount(ContentPath, NewContentHandler(service, logger).Routes())

	return r
}
