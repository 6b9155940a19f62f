package config

import (
	"time"
)

type StorageProvider string

const (
	StorageProviderCloudinary StorageProvider = "cloudinary"
	StorageProviderMinio      StorageProvider = "minio"
)

type Config struct {
	Database            DatabaseConfig
	ObjectStorage       ObjectStorageConfig
	TechnicalParameters TechnicalParameters
	Logging             LoggingConfig
	Monitoring          MonitoringConfig
	Cleanup             CleanupConfig
}

type DatabaseConfig struct {
	Url      string `validate:"required,url"`
	Password string `validate:"required" sensitive:"true"`
	PoolSize int    `validate:"gt=0"`
}

type ObjectStorageConfig struct {
	Provider   StorageProvider `validate:"required,oneof=cloudinary minio"`
	Folder     string
	Cloudinary CloudinaryConfig
	Minio      MinioConfig
}

type CloudinaryConfig struct {
	CloudName string
	ApiKey    string
	ApiSecret string `sensitive:"true"`
}

type MinioConfig struct {
	Endpoint   string
	Username   string
	Password   string `sensitive:"true"`
	BucketName string
	UseSSL     bool
}

type TechnicalParameters struct {
	InstanceId    string
	ListenAddress string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"oneof=trace debug info warn warning error fatal panic"`
	File  string
}

type MonitoringConfig struct {
	PushgatewayUrl string `validate:"omitempty,url"`
}

type CleanupConfig struct {
	ListingExpiration ListingExpirationConfig
	ListingPurge      ListingPurgeConfig
	ConversationPurge ConversationPurgeConfig
	ReportPurge       ReportPurgeConfig
}

type ListingExpirationConfig struct {
	Schedule       string
	BatchSize      int           `validate:"gt=0"`
	PageDelay      time.Duration `validate:"gte=0"`
	MaxAttempts    int           `validate:"gt=0"`
	TimeoutMinutes int           `validate:"gte=0"`
}

type ListingPurgeConfig struct {
	Schedule       string
	BatchSize      int `validate:"gt=0"`
	GraceDays      int `validate:"gte=0"`
	MaxAttempts    int `validate:"gt=0"`
	TimeoutMinutes int `validate:"gte=0"`
}

type ConversationPurgeConfig struct {
	Schedule        string
	RetentionMonths int `validate:"gt=0"`
	MaxRows         int `validate:"gt=0"`
	TimeoutMinutes  int `validate:"gte=0"`
}

type ReportPurgeConfig struct {
	Schedule       string
	RetentionDays  int `validate:"gt=0"`
	MaxRows        int `validate:"gt=0"`
	TimeoutMinutes int `validate:"gte=0"`
}

// Cutoff is the expiry time before which a listing is purged.
func (c ListingPurgeConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.GraceDays)
}

// Cutoff is the last activity time before which a conversation is purged.
func (c ConversationPurgeConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, -c.RetentionMonths, 0)
}

// Cutoff is the review time before which a closed report is purged.
func (c ReportPurgeConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.RetentionDays)
}
