package lifecycle

import (
	"sync"

	"github.com/ugparu/avcprobe/utils/logger"
)

type defaultLifecycleManager[T Instance] struct {
	instance             T
	startOnce, closeOnce *sync.Once
	closeChan            chan struct{}
}

// NewDefaultManager returns a manager that runs startFunc once on the caller's
// goroutine and calls Close_ once on Close.
func NewDefaultManager[T Instance](instance T) Manager[T] {
	return &defaultLifecycleManager[T]{
		instance:  instance,
		closeChan: make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
	}
}

func (m *defaultLifecycleManager[T]) Start(startFunc func(T) error) (err error) {
	select {
	case <-m.closeChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	m.startOnce.Do(func() {
		logger.Debugf(m.instance, "Starting")
		err = startFunc(m.instance)
	})
	return err
}

func (m *defaultLifecycleManager[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.closeChan)
		m.instance.Close_()
		logger.Debugf(m.instance, "Closed")
	})
}
