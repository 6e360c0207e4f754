package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Handler  *Handler
	Gatherer prometheus.Gatherer
	// Tuning returns the live tuning for GET /admin/config.
	Tuning func() any
	// UpdateTuning applies a partial update posted to /admin/config and returns
	// the new tuning. Errors are answered with 400.
	UpdateTuning func(body []byte) (any, error)
	// Race returns the latest race snapshot for GET /race. It must be safe to
	// call from any goroutine.
	Race func() any
	// StaticDir, if set, is served at / (the controller web page).
	StaticDir string
}

// NewRouter builds the chi router: /ws, /metrics, /healthz, /admin/config, /race.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/ws", cfg.Handler.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Tuning != nil {
		r.Get("/admin/config", jsonHandler(cfg.Tuning))
	}
	if cfg.UpdateTuning != nil {
		r.Post("/admin/config", updateHandler(cfg.UpdateTuning))
	}
	if cfg.Race != nil {
		r.Get("/race", jsonHandler(cfg.Race))
	}
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

func jsonHandler(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(get()); err != nil {
			Log.Warnw("encode response", "path", r.URL.Path, "err", err)
		}
	}
}

// largest accepted admin request body
const maxAdminBody = 64 << 10

func updateHandler(update func([]byte) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAdminBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := update(body)
		if err != nil {
			Log.Warnw("admin config update rejected", "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		Log.Infow("admin config updated", "req_id", middleware.GetReqID(r.Context()))
		jsonHandler(func() any { return v })(w, r)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		Log.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
			"req_id", middleware.GetReqID(r.Context()),
		)
	})
}
