package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init(development bool) {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = l.Sugar()
}

// Sync flushes any buffered log entries. Safe to call on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
