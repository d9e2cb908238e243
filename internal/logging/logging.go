// Package logging builds the process's structured logger, generalizing
// the teacher's debug logger (server.go's `s.debug *log.Logger`, built
// with `log.New(os.Stderr, debugPrefix, debugFlags)` when config.Debug is
// set, and `log.New(ioutil.Discard, "", 0)` otherwise) into a zap.Logger
// with the same on/off-by-config shape.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the process: development-style console
// encoding with debug-level output when debug is true (mirroring the
// teacher's verbose debug logger), and a quieter production encoder
// otherwise (mirroring the teacher's discard-by-default debug logger,
// since request-level logging still happens regardless of config.Debug).
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// ForRequest returns a child logger carrying the fields that identify one
// HTTP request, the structured analog of the teacher's
// `s.debug.Println(req.Method, req.URL)` call at the top of `handle`.
func ForRequest(base *zap.Logger, method, path, agent string) *zap.Logger {
	return base.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("agent", agent),
	)
}
