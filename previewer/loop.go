package previewer

import (
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/util"
)

// The loop goroutine owns every Previewer and the instance cache. Anything touching them is
// posted as a closure and runs here in FIFO order.
func (s *Service) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.events:
			s.runEvent(fn)
		case <-s.stopping:
			return
		}
	}
}

func (s *Service) runEvent(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			s.ctx.Log.Errorf("Panic in previewer loop: %v\n%s", err, debug.Stack())
			sentry.CaptureException(util.PanicToError(err))
		}
	}()
	fn()
}

// post queues fn for the loop. It reports false once the service is stopping.
func (s *Service) post(fn func()) bool {
	select {
	case <-s.stopping:
		return false
	default:
	}
	select {
	case s.events <- fn:
		return true
	case <-s.stopping:
		return false
	}
}

// call runs fn on the loop and waits for it to finish.
func (s *Service) call(fn func()) error {
	ran := make(chan struct{})
	if !s.post(func() {
		defer close(ran)
		fn()
	}) {
		return common.ErrServiceStopped
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return common.ErrServiceStopped
	}
}

func callValue[T any](s *Service, fn func() T) (T, error) {
	var v T
	err := s.call(func() {
		v = fn()
	})
	return v, err
}

func callErr(s *Service, fn func() error) error {
	var inner error
	if err := s.call(func() {
		inner = fn()
	}); err != nil {
		return err
	}
	return inner
}
