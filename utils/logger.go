package utils

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logOnce sync.Once
	logger  *zap.SugaredLogger
)

// InitLogger builds the process-wide zap logger. Call once from main; Log()
// falls back to a production logger if it was never called.
func InitLogger(debug bool) {
	logOnce.Do(func() {
		var base *zap.Logger
		var err error
		if debug {
			base, err = zap.NewDevelopment()
		} else {
			base, err = zap.NewProduction()
		}
		if err != nil {
			base = zap.NewNop()
		}
		logger = base.Sugar()
	})
}

// Log returns the shared sugared logger.
func Log() *zap.SugaredLogger {
	if logger == nil {
		InitLogger(false)
	}
	return logger
}
