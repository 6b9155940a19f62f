package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/app"
	"github.com/Netcracker/qubership-marketplace-cleanup/controller"
	"github.com/Netcracker/qubership-marketplace-cleanup/metrics"
	"github.com/Netcracker/qubership-marketplace-cleanup/middleware"
	"github.com/Netcracker/qubership-marketplace-cleanup/service"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	a, err := app.NewApplication()
	if err != nil {
		log.Fatalf("Failed to start cleanup scheduler: %v", err)
	}
	defer a.Close()
	metrics.RegisterAllPrometheusApplicationMetrics()

	cleanupService := cleanup.NewCleanupService()
	if err := registerJobs(a, cleanupService); err != nil {
		log.Fatalf("Failed to register cleanup jobs: %v", err)
	}

	healthController := controller.NewHealthController(a.ConnectionProvider)
	cleanupController := controller.NewCleanupController(cleanupService, service.NewCleanupLogService(a.CleanupLogRepository))
	backlogController := controller.NewCleanupBacklogController(
		service.NewCleanupBacklogService(a.ListingRepository, a.ConversationRepo, a.ReportRepository, a.Config.Cleanup))

	r := mux.NewRouter().UseEncodedPath()
	r.HandleFunc("/health/live", healthController.HandleLiveRequest).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", healthController.HandleReadyRequest).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/cleanup").Subrouter()
	api.Use(middleware.PrometheusMiddleware)
	api.HandleFunc("/logs", cleanupController.GetCleanupLogs).Methods(http.MethodGet)
	api.HandleFunc("/backlog", backlogController.GetCleanupBacklog).Methods(http.MethodGet)
	api.HandleFunc("/jobs", cleanupController.GetCleanupJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{jobName}/run", cleanupController.RunCleanupJob).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:              a.Config.TechnicalParameters.ListenAddress,
		Handler:           handlers.CompressHandler(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		cleanupService.Start()
		<-gCtx.Done()
		log.Info("Stopping cleanup scheduler")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Failed to shut down http server: %v", err)
		}
		select {
		case <-cleanupService.Stop().Done():
			log.Info("Running cleanup jobs finished")
		case <-shutdownCtx.Done():
			log.Warn("Cleanup jobs are still running, exiting anyway")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Cleanup scheduler failed: %v", err)
		a.Close()
		os.Exit(1)
	}
}

func registerJobs(a *app.Application, cleanupService cleanup.CleanupService) error {
	schedules := a.Config.Cleanup
	jobs := []struct {
		runner   *cleanup.JobRunner
		schedule string
	}{
		{a.ListingExpirationJob(), schedules.ListingExpiration.Schedule},
		{a.ListingPurgeJob(), schedules.ListingPurge.Schedule},
		{a.ConversationPurgeJob(), schedules.ConversationPurge.Schedule},
		{a.ReportPurgeJob(), schedules.ReportPurge.Schedule},
	}
	for _, job := range jobs {
		if err := cleanupService.AddJob(job.runner, job.schedule); err != nil {
			return err
		}
	}
	return nil
}
