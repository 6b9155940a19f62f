package utils

import (
	"runtime/debug"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type noPanicFunc func()
type noPanicFuncWErr func() error

func (f noPanicFunc) run() {
	defer func() {
		if r := recover(); r != nil {
			logPanic(r)
		}
	}()
	f()
}

func (f noPanicFuncWErr) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(r)
			err = panicToError(r)
		}
	}()
	return f()
}

// SafeAsync starts function in a new goroutine. A panic is logged and swallowed.
func SafeAsync(function noPanicFunc) {
	go function.run()
}

// SafeSync runs function and turns a panic into the returned error.
func SafeSync(function noPanicFuncWErr) error {
	return function.run()
}

func logPanic(r interface{}) {
	log.Errorf("Cleanup task failed with panic: %v", r)
	log.Tracef("Stacktrace: %v", string(debug.Stack()))
}

func panicToError(r interface{}) error {
	switch x := r.(type) {
	case error:
		return errors.WithStack(x)
	case string:
		return errors.New(x)
	default:
		return errors.Errorf("panic: %v", x)
	}
}
