package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/abasta/internal/health"
	"github.com/vladislavdragonenkov/abasta/internal/service/httpapi"
)

// newHTTPRouter собирает /metrics, health-пробы и API черновиков. api может быть nil.
func newHTTPRouter(healthHandler *healthcheck.Handler, api *httpapi.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/healthz", healthHandler)
	router.Get("/livez", healthcheck.LivenessHandler)
	router.Get("/readyz", healthHandler.ReadinessHandler)
	if api != nil {
		api.RegisterRoutes(router)
	}
	return router
}

// startHTTPServer запускает HTTP-сервер и останавливает его по отмене ctx.
func startHTTPServer(ctx context.Context, addr string, logger *log.Entry, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
