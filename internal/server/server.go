// Package server exposes the analysis API and the web UI over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/metrics"
	"github.com/xaenox/tonebuddy/internal/persona"
)

// maxBodyBytes caps request bodies for both the API and the form
const maxBodyBytes = 64 << 10

type Options struct {
	Analyzer analyzer.Analyzer
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	DailyAllowance int
	// Location is used when the browser does not report its timezone
	Location *time.Location
	Clock    func() time.Time
	Picker   *persona.Picker
}

type Server struct {
	apiAnalyzer analyzer.Analyzer
	webAnalyzer analyzer.Analyzer
	logger      *zap.Logger
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	picker      *persona.Picker

	allowance int
	location  *time.Location
	clock     func() time.Time
}

func New(opts Options) *Server {
	s := &Server{
		apiAnalyzer: opts.Metrics.Instrument(opts.Analyzer, "api"),
		webAnalyzer: opts.Metrics.Instrument(opts.Analyzer, "web"),
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		gatherer:    opts.Gatherer,
		picker:      opts.Picker,
		allowance:   opts.DailyAllowance,
		location:    opts.Location,
		clock:       opts.Clock,
	}
	if s.picker == nil {
		s.picker = persona.NewPicker(time.Now().UnixNano())
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors)
		r.Post("/analyze", s.handleAnalyze)
	})

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleSubmit)
	r.Post("/clear", s.handleClear)

	return r
}
