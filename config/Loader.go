package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	CONFIG_FILE                          = "CONFIG_FILE"
	DATABASE_URL                         = "DATABASE_URL"
	DATABASE_SERVICE_PASSWORD            = "DATABASE_SERVICE_PASSWORD"
	DATABASE_POOL_SIZE                   = "DATABASE_POOL_SIZE"
	STORAGE_PROVIDER                     = "STORAGE_PROVIDER"
	STORAGE_FOLDER                       = "STORAGE_FOLDER"
	CLOUDINARY_CLOUD_NAME                = "CLOUDINARY_CLOUD_NAME"
	CLOUDINARY_API_KEY                   = "CLOUDINARY_API_KEY"
	CLOUDINARY_API_SECRET                = "CLOUDINARY_API_SECRET"
	STORAGE_SERVER_URL                   = "STORAGE_SERVER_URL"
	STORAGE_SERVER_USERNAME              = "STORAGE_SERVER_USERNAME"
	STORAGE_SERVER_PASSWORD              = "STORAGE_SERVER_PASSWORD"
	STORAGE_SERVER_BUCKET_NAME           = "STORAGE_SERVER_BUCKET_NAME"
	STORAGE_SERVER_USE_SSL               = "STORAGE_SERVER_USE_SSL"
	INSTANCE_ID                          = "INSTANCE_ID"
	LISTEN_ADDRESS                       = "LISTEN_ADDRESS"
	LOG_LEVEL                            = "LOG_LEVEL"
	LOG_FILE                             = "LOG_FILE"
	PROMETHEUS_PUSHGATEWAY_URL           = "PROMETHEUS_PUSHGATEWAY_URL"
	EXPIRE_LISTINGS_SCHEDULE             = "EXPIRE_LISTINGS_SCHEDULE"
	EXPIRE_LISTINGS_BATCH_SIZE           = "EXPIRE_LISTINGS_BATCH_SIZE"
	EXPIRE_LISTINGS_PAGE_DELAY           = "EXPIRE_LISTINGS_PAGE_DELAY"
	EXPIRE_LISTINGS_MAX_ATTEMPTS         = "EXPIRE_LISTINGS_MAX_ATTEMPTS"
	EXPIRE_LISTINGS_TIMEOUT_MINUTES      = "EXPIRE_LISTINGS_TIMEOUT_MINUTES"
	PURGE_LISTINGS_SCHEDULE              = "PURGE_LISTINGS_SCHEDULE"
	PURGE_LISTINGS_BATCH_SIZE            = "PURGE_LISTINGS_BATCH_SIZE"
	PURGE_LISTINGS_GRACE_DAYS            = "PURGE_LISTINGS_GRACE_DAYS"
	PURGE_LISTINGS_MAX_ATTEMPTS          = "PURGE_LISTINGS_MAX_ATTEMPTS"
	PURGE_LISTINGS_TIMEOUT_MINUTES       = "PURGE_LISTINGS_TIMEOUT_MINUTES"
	PURGE_CONVERSATIONS_SCHEDULE         = "PURGE_CONVERSATIONS_SCHEDULE"
	PURGE_CONVERSATIONS_RETENTION_MONTHS = "PURGE_CONVERSATIONS_RETENTION_MONTHS"
	PURGE_CONVERSATIONS_MAX_ROWS         = "PURGE_CONVERSATIONS_MAX_ROWS"
	PURGE_CONVERSATIONS_TIMEOUT_MINUTES  = "PURGE_CONVERSATIONS_TIMEOUT_MINUTES"
	PURGE_REPORTS_SCHEDULE               = "PURGE_REPORTS_SCHEDULE"
	PURGE_REPORTS_RETENTION_DAYS         = "PURGE_REPORTS_RETENTION_DAYS"
	PURGE_REPORTS_MAX_ROWS               = "PURGE_REPORTS_MAX_ROWS"
	PURGE_REPORTS_TIMEOUT_MINUTES        = "PURGE_REPORTS_TIMEOUT_MINUTES"
)

var envBindings = map[string]string{
	"database.url":                              DATABASE_URL,
	"database.password":                         DATABASE_SERVICE_PASSWORD,
	"database.poolSize":                         DATABASE_POOL_SIZE,
	"objectStorage.provider":                    STORAGE_PROVIDER,
	"objectStorage.folder":                      STORAGE_FOLDER,
	"objectStorage.cloudinary.cloudName":        CLOUDINARY_CLOUD_NAME,
	"objectStorage.cloudinary.apiKey":           CLOUDINARY_API_KEY,
	"objectStorage.cloudinary.apiSecret":        CLOUDINARY_API_SECRET,
	"objectStorage.minio.endpoint":              STORAGE_SERVER_URL,
	"objectStorage.minio.username":              STORAGE_SERVER_USERNAME,
	"objectStorage.minio.password":              STORAGE_SERVER_PASSWORD,
	"objectStorage.minio.bucketName":            STORAGE_SERVER_BUCKET_NAME,
	"objectStorage.minio.useSSL":                STORAGE_SERVER_USE_SSL,
	"technicalParameters.instanceId":            INSTANCE_ID,
	"technicalParameters.listenAddress":         LISTEN_ADDRESS,
	"logging.level":                             LOG_LEVEL,
	"logging.file":                              LOG_FILE,
	"monitoring.pushgatewayUrl":                 PROMETHEUS_PUSHGATEWAY_URL,
	"cleanup.listingExpiration.schedule":        EXPIRE_LISTINGS_SCHEDULE,
	"cleanup.listingExpiration.batchSize":       EXPIRE_LISTINGS_BATCH_SIZE,
	"cleanup.listingExpiration.pageDelay":       EXPIRE_LISTINGS_PAGE_DELAY,
	"cleanup.listingExpiration.maxAttempts":     EXPIRE_LISTINGS_MAX_ATTEMPTS,
	"cleanup.listingExpiration.timeoutMinutes":  EXPIRE_LISTINGS_TIMEOUT_MINUTES,
	"cleanup.listingPurge.schedule":             PURGE_LISTINGS_SCHEDULE,
	"cleanup.listingPurge.batchSize":            PURGE_LISTINGS_BATCH_SIZE,
	"cleanup.listingPurge.graceDays":            PURGE_LISTINGS_GRACE_DAYS,
	"cleanup.listingPurge.maxAttempts":          PURGE_LISTINGS_MAX_ATTEMPTS,
	"cleanup.listingPurge.timeoutMinutes":       PURGE_LISTINGS_TIMEOUT_MINUTES,
	"cleanup.conversationPurge.schedule":        PURGE_CONVERSATIONS_SCHEDULE,
	"cleanup.conversationPurge.retentionMonths": PURGE_CONVERSATIONS_RETENTION_MONTHS,
	"cleanup.conversationPurge.maxRows":         PURGE_CONVERSATIONS_MAX_ROWS,
	"cleanup.conversationPurge.timeoutMinutes":  PURGE_CONVERSATIONS_TIMEOUT_MINUTES,
	"cleanup.reportPurge.schedule":              PURGE_REPORTS_SCHEDULE,
	"cleanup.reportPurge.retentionDays":         PURGE_REPORTS_RETENTION_DAYS,
	"cleanup.reportPurge.maxRows":               PURGE_REPORTS_MAX_ROWS,
	"cleanup.reportPurge.timeoutMinutes":        PURGE_REPORTS_TIMEOUT_MINUTES,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.poolSize", 5)
	v.SetDefault("objectStorage.provider", string(StorageProviderCloudinary))
	v.SetDefault("objectStorage.folder", "posts")
	v.SetDefault("objectStorage.minio.useSSL", true)
	v.SetDefault("technicalParameters.listenAddress", ":8080")
	v.SetDefault("logging.level", "info")

	v.SetDefault("cleanup.listingExpiration.schedule", "0 * * * *")
	v.SetDefault("cleanup.listingExpiration.batchSize", 100)
	v.SetDefault("cleanup.listingExpiration.pageDelay", time.Second)
	v.SetDefault("cleanup.listingExpiration.maxAttempts", 1)

	v.SetDefault("cleanup.listingPurge.schedule", "0 3 * * *")
	v.SetDefault("cleanup.listingPurge.batchSize", 10)
	v.SetDefault("cleanup.listingPurge.graceDays", 7)
	v.SetDefault("cleanup.listingPurge.maxAttempts", 1)

	v.SetDefault("cleanup.conversationPurge.schedule", "30 3 * * *")
	v.SetDefault("cleanup.conversationPurge.retentionMonths", 1)
	v.SetDefault("cleanup.conversationPurge.maxRows", 10000)

	v.SetDefault("cleanup.reportPurge.schedule", "0 4 * * 0")
	v.SetDefault("cleanup.reportPurge.retentionDays", 30)
	v.SetDefault("cleanup.reportPurge.maxRows", 10000)
}

// LoadConfig builds the configuration from defaults, an optional YAML file pointed to by
// CONFIG_FILE and the environment. Environment values win.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if file := os.Getenv(CONFIG_FILE); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.TechnicalParameters.InstanceId == "" {
		cfg.TechnicalParameters.InstanceId = uuid.New().String()
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterStructValidation(objectStorageStructLevelValidation, ObjectStorageConfig{})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	problems := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		problems = append(problems, describeFieldError(fieldErr))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func objectStorageStructLevelValidation(sl validator.StructLevel) {
	storage := sl.Current().Interface().(ObjectStorageConfig)
	switch storage.Provider {
	case StorageProviderCloudinary:
		if storage.Cloudinary.CloudName == "" {
			sl.ReportError(storage.Cloudinary.CloudName, "Cloudinary.CloudName", "CloudName", "required", "")
		}
		if storage.Cloudinary.ApiKey == "" {
			sl.ReportError(storage.Cloudinary.ApiKey, "Cloudinary.ApiKey", "ApiKey", "required", "")
		}
		if storage.Cloudinary.ApiSecret == "" {
			sl.ReportError(storage.Cloudinary.ApiSecret, "Cloudinary.ApiSecret", "ApiSecret", "required", "")
		}
	case StorageProviderMinio:
		if storage.Minio.Endpoint == "" {
			sl.ReportError(storage.Minio.Endpoint, "Minio.Endpoint", "Endpoint", "required", "")
		}
		if storage.Minio.Username == "" {
			sl.ReportError(storage.Minio.Username, "Minio.Username", "Username", "required", "")
		}
		if storage.Minio.Password == "" {
			sl.ReportError(storage.Minio.Password, "Minio.Password", "Password", "required", "")
		}
		if storage.Minio.BucketName == "" {
			sl.ReportError(storage.Minio.BucketName, "Minio.BucketName", "BucketName", "required", "")
		}
	}
}

func describeFieldError(fieldErr validator.FieldError) string {
	namespace := strings.TrimPrefix(fieldErr.Namespace(), "Config.")
	key := configKey(namespace)
	if env, ok := envBindings[key]; ok {
		return fmt.Sprintf("%s (%s) failed on '%s'", namespace, env, fieldErr.Tag())
	}
	return fmt.Sprintf("%s failed on '%s'", namespace, fieldErr.Tag())
}

// configKey converts a validator namespace like "ObjectStorage.Cloudinary.ApiKey" into the
// viper key "objectStorage.cloudinary.apiKey".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = []rune(strings.ToLower(string(runes[0])))[0]
		parts[i] = string(runes)
	}
	return strings.Join(parts, ".")
}
