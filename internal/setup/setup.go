// Package setup holds the process-wide initialization steps run once at startup.
package setup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const authReadme = "Place your .har and .json cookie files here for providers that require authentication.\n" +
	"This directory is optional - most providers work without cookies.\n"

// NewLogger builds a production logger, or a development one when dev is set.
func NewLogger(dev bool, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// EnsureAuthDir creates dir with an explanatory README if it does not exist.
// It never fails: problems are logged at debug level and ignored.
func EnsureAuthDir(dir string, logger *zap.Logger) {
	if _, err := os.Stat(dir); err == nil {
		return
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.Debug("auth directory not accessible", zap.String("dir", dir), zap.Error(err))
		return
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Debug("failed to create auth directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte(authReadme), 0o644); err != nil {
		logger.Debug("failed to write auth README", zap.String("dir", dir), zap.Error(err))
		return
	}
	logger.Info("created auth directory", zap.String("dir", dir))
}
