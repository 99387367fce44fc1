package lifecycle

import (
	"errors"
	"runtime/debug"
	"sync"

	"github.com/ugparu/avcprobe/utils/logger"
)

type asyncLifecycleManager[T AsyncInstance] struct {
	instance             T
	stopChan, doneChan   chan struct{}
	startOnce, closeOnce *sync.Once
	err                  error
}

// NewAsyncManager returns a manager that calls Step in a loop on its own
// goroutine once started. Close stops the loop, waits for it and then
// calls Close_.
func NewAsyncManager[T AsyncInstance](instance T) AsyncManager[T] {
	return &asyncLifecycleManager[T]{
		instance:  instance,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
	}
}

func (m *asyncLifecycleManager[T]) Start(startFunc func(T) error) (err error) {
	select {
	case <-m.stopChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	m.startOnce.Do(func() {
		logger.Debugf(m.instance, "Starting async")
		if err = startFunc(m.instance); err != nil {
			m.err = err
			close(m.doneChan)
			return
		}
		go m.process()
	})
	return err
}

func (m *asyncLifecycleManager[T]) process() {
	logger.Debug(m.instance, "Entering main loop")
	defer close(m.doneChan)

	for {
		if err := m.step(); err != nil {
			var brk *BreakError
			if !errors.As(err, &brk) {
				logger.Warningf(m.instance, "Detected error: %s", err.Error())
				m.err = err
			}
			return
		}
	}
}

func (m *asyncLifecycleManager[T]) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(m.instance, "Panic detected! Recovering from: %v", r)
			logger.Errorf(m.instance, "%s", debug.Stack())
			err = &PanicError{Value: r}
		}
	}()
	return m.instance.Step(m.stopChan)
}

func (m *asyncLifecycleManager[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.startOnce.Do(func() {
			close(m.doneChan)
		})
		<-m.doneChan
		m.instance.Close_()
	})
}

func (m *asyncLifecycleManager[T]) Done() <-chan struct{} {
	return m.doneChan
}

func (m *asyncLifecycleManager[T]) Err() error {
	<-m.doneChan
	return m.err
}
