// Package logger provides zap-based structured logging for the API server
// and worker processes.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a sugared zap logger for the given mode ("prod"/"production"
// selects the JSON production config, anything else the development config).
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
