// Package storelog builds the zap logger used by the engine and CLI. It
// is a thin, deliberately unopinionated wrapper: logging is a
// side-channel that never influences store behavior.
package storelog

import "go.uber.org/zap"

// New builds a production JSON logger, or a development console logger
// with caller info when verbose is true.
func New(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
