// Package logging builds the zap logger. Output always goes to a rotated
// file so it never draws over the terminal UI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

// Options configure New.
type Options struct {
	Path    string
	Level   string // debug, info, warn, error
	Verbose bool   // forces debug
}

// ParseLevel maps a config value to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New opens a JSON-lines logger writing to opts.Path through lumberjack.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		lvl = zapcore.DebugLevel
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	return NewWithSyncer(ws, lvl), nil
}

// NewWithSyncer builds the logger over any sink.
func NewWithSyncer(ws zapcore.WriteSyncer, lvl zapcore.Level) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller()).Named("assetcli")
}

// Mirror writes every record published on bus to log.
func Mirror(bus *feed.Bus, log *zap.Logger) error {
	log = log.Named("feed")
	if err := bus.OnNotify(func(n feed.Notification) {
		fields := []zap.Field{zap.String("level", string(n.Level))}
		if n.Level == feed.LevelDanger {
			log.Warn(n.Message, fields...)
			return
		}
		log.Info(n.Message, fields...)
	}); err != nil {
		return err
	}
	if err := bus.OnTx(func(tx feed.PendingTransaction) {
		log.Info("history", zap.String("action", tx.Action), zap.String("hash", tx.Hash))
	}); err != nil {
		return err
	}
	return bus.OnEvent(func(ev feed.EventRecord) {
		log.Debug("event",
			zap.String("name", ev.EventName),
			zap.Strings("args", ev.Args),
			zap.String("tx", ev.TxHash),
			zap.Uint64("block", ev.Block),
		)
	})
}
