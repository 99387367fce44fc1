// Package logger writes logrus lines tagged with the object that produced them.
//
// After Init, lines are formatted and written by a background goroutine.
// Before Init, they are written synchronously so library callers that never
// initialise logging are not blocked.
package logger

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

type logPair struct {
	logFn func(...any)
	obj   string
	msg   string
}

const (
	logSize  = 1000
	objWidth = 20
)

var (
	logCh   = make(chan logPair, logSize)
	started atomic.Bool
	once    sync.Once
)

func objToString(obj any) (objStr string) {
	if obj == nil {
		objStr = "NIL"
	} else if stringerObj, ok := obj.(stringer); ok {
		objStr = stringerObj.String()
	} else if objStr, ok = obj.(string); ok {
	} else {
		t := reflect.TypeOf(obj)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		objStr = t.Name()
	}
	if len(objStr) > objWidth {
		objStr = objStr[:objWidth]
	}
	return
}

func format(p logPair) string {
	return fmt.Sprintf("|%20s|%-100s", p.obj, p.msg)
}

// Init sets the level and formatter and starts the writer goroutine. Calling it
// again only changes the level.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	once.Do(func() {
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			PadLevelText:    true,
			TimestampFormat: "2006/02/01 15:04:05",
		})

		go func() {
			for p := range logCh {
				p.logFn(format(p))
			}
		}()
		started.Store(true)
	})
}

func send(lvl logrus.Level, fn func(...any), object any, msg string) {
	if !logrus.IsLevelEnabled(lvl) {
		return
	}
	p := logPair{logFn: fn, obj: objToString(object), msg: msg}
	if !started.Load() {
		fn(format(p))
		return
	}
	logCh <- p
}

func Trace(object any, message string) {
	send(logrus.TraceLevel, logrus.Trace, object, message)
}

func Tracef(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		send(logrus.TraceLevel, logrus.Trace, object, fmt.Sprintf(message, args...))
	}
}

func Debug(object any, message string) {
	send(logrus.DebugLevel, logrus.Debug, object, message)
}

func Debugf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		send(logrus.DebugLevel, logrus.Debug, object, fmt.Sprintf(message, args...))
	}
}

func Info(object any, message string) {
	send(logrus.InfoLevel, logrus.Info, object, message)
}

func Infof(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		send(logrus.InfoLevel, logrus.Info, object, fmt.Sprintf(message, args...))
	}
}

func Warning(object any, message string) {
	send(logrus.WarnLevel, logrus.Warning, object, message)
}

func Warningf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.WarnLevel) {
		send(logrus.WarnLevel, logrus.Warning, object, fmt.Sprintf(message, args...))
	}
}

func Error(object any, message string) {
	send(logrus.ErrorLevel, logrus.Error, object, message)
}

func Errorf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.ErrorLevel) {
		send(logrus.ErrorLevel, logrus.Error, object, fmt.Sprintf(message, args...))
	}
}

func Fatal(object any, message string) {
	logrus.Fatal(format(logPair{obj: objToString(object), msg: message}))
}

func Fatalf(object any, message string, args ...any) {
	logrus.Fatal(format(logPair{obj: objToString(object), msg: fmt.Sprintf(message, args...)}))
}
