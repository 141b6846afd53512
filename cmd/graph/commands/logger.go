package commands

import (
	"go.uber.org/zap"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// ZapLogger adapts a zap logger to graph.Logger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger wraps logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger.Sugar()}
}

// newLogger builds the CLI logger. Verbose mode uses zap's development
// config so debug entries reach stderr.
func newLogger(verbose bool) (*ZapLogger, func(), error) {
	var (
		logger *zap.Logger
		err    error
	)

	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, nil, err
	}

	return NewZapLogger(logger), func() { _ = logger.Sync() }, nil
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debugw(msg, keyValues(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Infow(msg, keyValues(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warnw(msg, keyValues(fields)...)
}

func (l *ZapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Errorw(msg, keyValues(fields)...)
}

func keyValues(fields map[string]interface{}) []interface{} {
	keysAndValues := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		keysAndValues = append(keysAndValues, key, value)
	}

	return keysAndValues
}

var _ graph.Logger = (*ZapLogger)(nil)
