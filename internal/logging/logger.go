// Package logging provides config-driven categorized loggers for sgtm.
// A single zap root logger writes to stderr; each category is a named child of
// it and can be switched off individually in the config file.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Helveg/sendgrid-template-manager/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryCLI      Category = "cli"      // Command dispatch, exit handling
	CategoryClient   Category = "client"   // SendGrid HTTP requests
	CategoryApply    Category = "apply"    // Design application runs
	CategoryLists    Category = "lists"    // Contact list management
	CategoryContacts Category = "contacts" // CSV preparation and uploads
)

var (
	root     = zap.NewNop()
	cfg      config.LoggingConfig
	loggers  = make(map[Category]*zap.Logger)
	loggerMu sync.RWMutex
)

// Initialize builds the root logger from the logging config. Verbose forces
// debug level.
func Initialize(c config.LoggingConfig, verbose bool) error {
	level, err := parseLevel(c.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	switch strings.ToLower(c.Format) {
	case "", "console", "text":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	InitializeWithLogger(logger, c)
	return nil
}

// InitializeWithLogger installs logger as the root and drops cached categories.
func InitializeWithLogger(logger *zap.Logger, c config.LoggingConfig) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	root = logger
	cfg = c
	loggers = make(map[Category]*zap.Logger)
}

// Get returns (or creates) the logger for a category. Disabled categories
// get a no-op logger.
func Get(category Category) *zap.Logger {
	loggerMu.RLock()
	if l, ok := loggers[category]; ok {
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	l := zap.NewNop()
	if cfg.IsCategoryEnabled(string(category)) {
		l = root.Named(string(category))
	}
	loggers[category] = l
	return l
}

// Sync flushes the root logger.
func Sync() error {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return root.Sync()
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "":
		return zapcore.WarnLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
