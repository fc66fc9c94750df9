package debug

import (
	"fmt"
	"time"

	"github.com/cnpj-cowork/internal/logger"
)

// DebugHeader logs a header line if debugging is enabled
func DebugHeader(enabled bool) {
	if enabled {
		logger.L().Debug("=== DEBUG START ===")
	}
}

// DebugFooter logs a footer line if debugging is enabled
func DebugFooter(enabled bool) {
	if enabled {
		logger.L().Debug("=== DEBUG END ===")
	}
}

// DebugOutput logs a formatted message if debugging is enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		logger.L().Debug(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	logger.L().Debug("starting", "operation", operation)

	return func() {
		logger.L().Debug("completed", "operation", operation, "took", time.Since(start))
	}
}
