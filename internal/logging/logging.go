// Package logging wires the global zap logger.
package logging

import "go.uber.org/zap"

// Init builds the process logger and installs it as zap's global so that
// zap.L() works everywhere. The returned logger should be synced on exit.
func Init(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
