package utils

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/yatube/yatube/config"
)

var (
	// Logger is the process-wide logger. It discards everything until InitLogger runs.
	Logger = zap.NewNop()
	Sugar  = Logger.Sugar()
)

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// InitLogger writes JSON lines to stdout and, when LogPath is set, to a rotated file as well.
func InitLogger(cfg config.AppConfig) error {
	enabled := levelOf(cfg.LogLevel)
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if cfg.LogPath != "" {
		sinks = append(sinks, rotated(cfg.LogPath, cfg))
	}
	core := zapcore.NewCore(jsonEncoder(), zapcore.NewMultiWriteSyncer(sinks...), enabled)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if enabled == zapcore.DebugLevel {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(core, opts...)
	Sugar = Logger.Sugar()
	return nil
}

// NewRollingFileLogger returns a logger that writes only to path; the router uses it for access logs.
func NewRollingFileLogger(path, level string, cfg config.AppConfig) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewCore(jsonEncoder(), rotated(path, cfg), levelOf(level))), nil
}

func levelOf(name string) zapcore.Level {
	if l, ok := levels[name]; ok {
		return l
	}
	return zapcore.InfoLevel
}

func rotated(path string, cfg config.AppConfig) zapcore.WriteSyncer {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   cfg.LogCompress,
	}
	if cfg.LogMaxSizeMB > 0 {
		w.MaxSize = cfg.LogMaxSizeMB
	}
	if cfg.LogMaxBackups > 0 {
		w.MaxBackups = cfg.LogMaxBackups
	}
	if cfg.LogMaxAgeDays > 0 {
		w.MaxAge = cfg.LogMaxAgeDays
	}
	return zapcore.AddSync(w)
}

func jsonEncoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime + ".000")
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(ec)
}
