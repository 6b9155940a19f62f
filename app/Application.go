package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	"github.com/Netcracker/qubership-marketplace-cleanup/metrics"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup"
	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	log "github.com/sirupsen/logrus"
)

// Application holds the clients shared by the cleanup binaries.
type Application struct {
	Config               *config.Config
	ConnectionProvider   db.ConnectionProvider
	ImageStorage         service.ImageStorageService
	ListingRepository    repository.ListingRepository
	ConversationRepo     repository.ConversationRepository
	ReportRepository     repository.ReportRepository
	CleanupLogRepository repository.CleanupLogRepository
	AuditLogger          cleanup.AuditLogger

	logCloser io.Closer
}

func NewApplication() (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logCloser, err := SetupLogging(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	utils.PrintConfig(cfg)

	cp, err := db.NewConnectionProvider(cfg.Database)
	if err != nil {
		return nil, err
	}
	imageStorage, err := service.NewImageStorageService(cfg.ObjectStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create image storage client: %w", err)
	}
	cleanupLogRepository := repository.NewCleanupLogRepository(cp)

	return &Application{
		Config:               cfg,
		ConnectionProvider:   cp,
		ImageStorage:         imageStorage,
		ListingRepository:    repository.NewListingRepository(cp),
		ConversationRepo:     repository.NewConversationRepository(cp),
		ReportRepository:     repository.NewReportRepository(cp),
		CleanupLogRepository: cleanupLogRepository,
		AuditLogger:          cleanup.NewAuditLogger(cleanupLogRepository),
		logCloser:            logCloser,
	}, nil
}

func (a *Application) ListingExpirationJob() *cleanup.JobRunner {
	return cleanup.NewListingExpirationJob(a.ListingRepository, a.AuditLogger, a.Config.Cleanup.ListingExpiration, a.instanceId())
}

func (a *Application) ListingPurgeJob() *cleanup.JobRunner {
	return cleanup.NewListingPurgeJob(a.ListingRepository, a.ImageStorage, a.AuditLogger, a.Config.Cleanup.ListingPurge, a.instanceId())
}

func (a *Application) ConversationPurgeJob() *cleanup.JobRunner {
	return cleanup.NewConversationPurgeJob(a.ConversationRepo, a.AuditLogger, a.Config.Cleanup.ConversationPurge, a.instanceId())
}

func (a *Application) ReportPurgeJob() *cleanup.JobRunner {
	return cleanup.NewReportPurgeJob(a.ReportRepository, a.AuditLogger, a.Config.Cleanup.ReportPurge, a.instanceId())
}

func (a *Application) instanceId() string {
	return a.Config.TechnicalParameters.InstanceId
}

func (a *Application) Close() {
	if err := a.ConnectionProvider.Close(); err != nil {
		log.Warnf("Failed to close database connection: %v", err)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// RunJob is the body of a one-shot job binary: it runs the job once, pushes its metrics when
// a Pushgateway is configured and exits with 1 on a failed run.
func RunJob(newJob func(a *Application) *cleanup.JobRunner) {
	a, err := NewApplication()
	if err != nil {
		log.Fatalf("Failed to start cleanup job: %v", err)
	}
	metrics.RegisterAllPrometheusApplicationMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	job := newJob(a)
	runErr := job.Execute(ctx)
	stop()

	if url := a.Config.Monitoring.PushgatewayUrl; url != "" {
		if err := metrics.PushCleanupMetrics(url, job.Name(), a.instanceId()); err != nil {
			log.Warnf("Failed to push %s metrics to %s: %v", job.Name(), url, err)
		}
	}
	a.Close()
	if runErr != nil {
		os.Exit(1)
	}
}
