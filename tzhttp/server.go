// Package tzhttp exposes a tzdb.Database over HTTP as a small JSON API.
//
//	GET /healthz                                  store loaded or not
//	GET /zones                                    available zone ids
//	GET /offset?zone=Z&at=RFC3339                 offset at an instant
//	GET /info?zone=Z&local=T                      classify a local date-time
//	GET /instant?zone=Z&local=T&prefer=+01:00     instant of a local date-time
//	GET /transitions?zone=Z&from=RFC3339&count=N  upcoming transitions
//
// Zone ids go into the query string since most of them contain slashes.
// Local date-times use the form 2006-01-02T15:04:05 with optional
// fractional seconds.
package tzhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ngrash/tzoffset/tzdb"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins lists the origins allowed by CORS. Nil disables CORS
	// headers.
	AllowedOrigins []string
	Logger         *zap.Logger
	// Now replaces time.Now for defaults of omitted instants.
	Now func() time.Time
}

// NewRouter returns the API routes over db.
func NewRouter(db *tzdb.Database, opts Options) *chi.Mux {
	h := &Handler{db: db, logger: opts.Logger, now: opts.Now}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.Health)
	r.Get("/zones", h.ListZones)
	r.Get("/offset", h.Offset)
	r.Get("/info", h.Info)
	r.Get("/instant", h.Instant)
	r.Get("/transitions", h.Transitions)
	return r
}

// requestLogger logs one line per request.
func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Info("Served request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("query", r.URL.RawQuery),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
