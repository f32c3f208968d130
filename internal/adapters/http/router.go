package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/kirillkom/ai-closet/internal/config"
	"github.com/kirillkom/ai-closet/internal/core/ports"
	"github.com/kirillkom/ai-closet/internal/observability/metrics"
)

const (
	serviceName      = "api"
	maxBatchImages   = 10
	multipartMemory  = 32 << 20
	multipartSlack   = 1 << 20
	defaultBodyLimit = 1 << 20
)

// HealthChecker reports whether the record store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Ingest   ports.ClothingIngestor
	Clothing ports.ClothingService
	Outfits  ports.OutfitService
	Images   ports.ImageUploader
	Health   HealthChecker
}

type Router struct {
	svc     Services
	metrics *metrics.HTTPServerMetrics

	appEnv            string
	production        bool
	jwtSecret         []byte
	maxUploadBytes    int64
	corsOrigins       []string
	rateLimitRPS      float64
	rateLimitBurst    int
	maxInFlight       int
	backpressureWait  time.Duration
	uploadLimitPerMin int
	uploadsDir        string
	exposeMetrics     bool

	started time.Time
}

// NewRouter builds the API surface. uploadsDir, when set, is served under
// /uploads/. m may be nil.
func NewRouter(svc Services, cfg config.Config, uploadsDir string, m *metrics.HTTPServerMetrics) *Router {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Router{
		svc:               svc,
		metrics:           m,
		appEnv:            cfg.AppEnv,
		production:        cfg.Production(),
		jwtSecret:         []byte(cfg.JWTSecret),
		maxUploadBytes:    maxUpload,
		corsOrigins:       cfg.CORSOrigins,
		rateLimitRPS:      cfg.APIRateLimitRPS,
		rateLimitBurst:    cfg.APIRateLimitBurst,
		maxInFlight:       cfg.APIMaxInFlight,
		backpressureWait:  cfg.BackpressureWaitTimeout,
		uploadLimitPerMin: cfg.UploadRateLimitPerMin,
		uploadsDir:        uploadsDir,
		exposeMetrics:     cfg.MetricsEnabled,
		started:           time.Now(),
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(recoverMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return rateLimitMiddleware(next, rt.rateLimitRPS, rt.rateLimitBurst)
	})
	r.Use(func(next http.Handler) http.Handler {
		return backpressureMiddleware(next, rt.maxInFlight, rt.backpressureWait)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessageError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessageError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", rt.health)
	if rt.metrics != nil && rt.exposeMetrics {
		r.Handle("/metrics", rt.metrics.Handler())
	}
	if rt.uploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.uploadsDir))))
	}

	uploads := rt.uploadLimiter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.health)

		r.Group(func(r chi.Router) {
			r.Use(rt.identityMiddleware)

			r.Route("/clothing", func(r chi.Router) {
				r.Get("/", rt.listClothing)
				r.With(uploads).Post("/", rt.createClothing)
				r.Get("/{id}", rt.getClothing)
				r.Put("/{id}", rt.updateClothing)
				r.Delete("/{id}", rt.deleteClothing)
				r.Patch("/{id}/usage", rt.recordUsage)
			})

			r.Route("/outfits", func(r chi.Router) {
				r.Get("/", rt.listOutfits)
				r.With(uploads).Post("/", rt.createOutfit)
				r.Get("/{id}", rt.getOutfit)
				r.With(uploads).Put("/{id}", rt.updateOutfit)
				r.Delete("/{id}", rt.deleteOutfit)
			})

			r.Route("/images", func(r chi.Router) {
				r.Use(uploads)
				r.Post("/upload", rt.uploadImage)
				r.Post("/upload-multiple", rt.uploadImages)
			})
		})
	})
	return r
}

// uploadLimiter throttles image uploads per client IP. It is a pass-through
// when no per-minute limit is configured.
func (rt *Router) uploadLimiter() func(http.Handler) http.Handler {
	if rt.uploadLimitPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(rt.uploadLimitPerMin, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeMessageError(w, http.StatusTooManyRequests, "Too many uploads, retry later")
		}),
	)
}

func (rt *Router) recordUpload(kind string, size int64) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, kind, size)
	}
}
