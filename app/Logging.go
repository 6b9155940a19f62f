package app

import (
	"io"
	"os"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMb  = 10
	logFileMaxBackups = 5
	logFileMaxAgeDays = 14
)

// SetupLogging configures the standard logrus logger. When a log file is set the output goes
// to stdout and to a rotated file. The returned closer releases the file.
func SetupLogging(cfg config.LoggingConfig) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		ForceFormatting: true,
		DisableColors:   cfg.File != "",
	})
	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    logFileMaxSizeMb,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return file, nil
}
