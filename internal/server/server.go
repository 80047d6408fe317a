// Package server is the composition root: it connects configuration, the
// document store, upstream lookup clients, and the HTTP interface layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kantineguiden/services/api/internal/cache"
	"github.com/kantineguiden/services/api/internal/config"
	"github.com/kantineguiden/services/api/internal/infrastructure/directory"
	"github.com/kantineguiden/services/api/internal/infrastructure/geocode"
	mongodoc "github.com/kantineguiden/services/api/internal/infrastructure/mongo"
	publichttp "github.com/kantineguiden/services/api/internal/interfaces/http/public"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
	"github.com/kantineguiden/services/api/pkg/metrics"
)

const lookupCacheEntries = 200

// Server manages the HTTP lifecycle and injects dependencies into the
// handler layer.
type Server struct {
	logger             *log.Logger
	client             *mongo.Client
	database           *mongo.Database
	location           *time.Location
	metrics            *metrics.Manager
	registryService    application.RegistryService
	reviewService      application.ReviewService
	queryService       application.QueryService
	feedbackService    application.FeedbackService
	geocoder           application.Geocoder
	canteenCollection  string
	reviewCollection   string
	clientTokenSecret  []byte
	clientCookieSecure bool
	addr               string
	allowedOrigins     []string
	requestTimeout     time.Duration
}

// New assembles the application services and returns a runnable Server.
func New(cfg config.Config, client *mongo.Client, m *metrics.Manager) *Server {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
		cfg.ServerLog.Printf("failed to load timezone %s: %v, falling back to UTC", cfg.Timezone, err)
	}

	srv := &Server{
		logger:             cfg.ServerLog,
		client:             client,
		database:           client.Database(cfg.MongoDatabase),
		location:           loc,
		metrics:            m,
		canteenCollection:  cfg.CanteenCollection,
		reviewCollection:   cfg.ReviewCollection,
		clientTokenSecret:  []byte(cfg.ClientTokenSecret),
		clientCookieSecure: cfg.ClientCookieSecure,
		addr:               cfg.Addr,
		allowedOrigins:     append([]string(nil), cfg.AllowedOrigins...),
		requestTimeout:     cfg.RequestTimeout,
	}

	canteenRepo := mongodoc.NewCanteenRepository(srv.database, cfg.CanteenCollection, m)
	ledger := mongodoc.NewReviewLedger(client, srv.database, cfg.ReviewCollection, cfg.CanteenCollection, m)
	feedbackRepo := mongodoc.NewFeedbackRepository(srv.database, cfg.FeedbackCollection)

	brregClient := directory.NewBrregClient(
		cfg.BrregBaseURL,
		&http.Client{Timeout: 10 * time.Second},
		cache.New[[]domain.CompanyHit](cfg.DirectoryCacheTTL, lookupCacheEntries),
		cache.New[*domain.Company](cfg.DirectoryCacheTTL, lookupCacheEntries),
		m,
	)
	srv.geocoder = geocode.NewGeonorgeClient(
		cfg.GeonorgeBaseURL,
		&http.Client{},
		cache.New[*application.Coordinates](cfg.GeocodeCacheTTL, lookupCacheEntries),
		m,
	)

	srv.registryService = application.NewRegistryService(canteenRepo, brregClient)
	srv.reviewService = application.NewReviewService(ledger)
	srv.queryService = application.NewQueryService(canteenRepo)
	srv.feedbackService = application.NewFeedbackService(feedbackRepo)

	return srv
}

// Run ensures the storage indexes, mounts the routes, and serves until a
// shutdown signal arrives.
func (s *Server) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := mongodoc.EnsureIndexes(ctx, s.database, s.canteenCollection, s.reviewCollection); err != nil {
		cancel()
		return err
	}
	cancel()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))
	router.Use(middleware.Timeout(s.requestTimeout))
	router.Use(s.withHTTPMetrics)

	router.Get("/healthz", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:   s.logger,
		Registry: s.registryService,
		Reviews:  s.reviewService,
		Queries:  s.queryService,
		Feedback: s.feedbackService,
		Geocoder: s.geocoder,
		Location: s.location,
	})
	publicHandler.Register(router, s.clientTokenMiddleware)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	waitForShutdown(httpServer, errChan, s)
	return nil
}

// withCORS grants the configured origins access, answering preflights early.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// withHTTPMetrics records the latency of every handled request under its
// routing pattern, not the raw path, to keep label cardinality bounded.
func (s *Server) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, http.StatusText(ww.Status()), time.Since(start))
	})
}

// healthHandler reports reachability of the document store, nothing more.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("JSON encoding failed: %v", err)
	}
}

// shutdown disconnects the MongoDB client with a timeout so process exit
// does not leak connections.
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("error disconnecting from MongoDB: %v", err)
	}
}

// waitForShutdown watches both ListenAndServe and OS signals and drives a
// graceful stop.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Fatalf("server exited abnormally: %v", err)
		}
	case sig := <-sigChan:
		srv.logger.Printf("received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("error during server shutdown: %v", err)
		}
	}

	srv.shutdown(context.Background())
}
