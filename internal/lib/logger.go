package lib

import (
	"os"

	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05"

// LogOptions describes one named log stream. FilePath is optional, the file
// always receives debug entries while the console honours Level
type LogOptions struct {
	Level    string
	Color    bool
	IsProd   bool
	JSON     bool
	FilePath string
}

type Logger struct {
	*zap.SugaredLogger
}

func NewLogger(opts LogOptions) (*Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(opts, opts.Color), zapcore.AddSync(os.Stdout), level)

	if opts.FilePath != "" {
		file, err := os.OpenFile(opts.FilePath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(newEncoder(opts, false), zapcore.AddSync(file), zapcore.DebugLevel)
		core = zapcore.NewTee(fileCore, core)
	}

	zapOpts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if !opts.IsProd {
		zapOpts = append(zapOpts, zap.Development())
	}

	return &Logger{SugaredLogger: zap.New(core, zapOpts...).Sugar()}, nil
}

// NewTestLogger logs everything to stdout
func NewTestLogger() *Logger {
	log, _ := NewLogger(LogOptions{Level: "debug"})
	return log
}

func newEncoder(opts LogOptions, color bool) zapcore.Encoder {
	var cfg zapcore.EncoderConfig
	if opts.IsProd {
		cfg = zap.NewProductionEncoderConfig()
	} else {
		cfg = zap.NewDevelopmentEncoderConfig()
	}
	if !opts.JSON {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	}

	if opts.JSON {
		return zapcore.NewJSONEncoder(cfg)
	}
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func (l *Logger) Named(name string) interfaces.ILogger {
	return &Logger{l.SugaredLogger.Named(name)}
}

func (l *Logger) With(args ...interface{}) interfaces.ILogger {
	return &Logger{l.SugaredLogger.With(args...)}
}
