package readers

import (
	"io"
	"sync"
	"time"
)

// IdleCloser calls onIdle when no Read has completed for the given duration. Every Read restarts
// the clock and Close stops it.
type IdleCloser struct {
	io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	once    sync.Once
}

func NewIdleCloser(r io.ReadCloser, timeout time.Duration, onIdle func()) *IdleCloser {
	c := &IdleCloser{ReadCloser: r, timeout: timeout}
	if timeout > 0 {
		c.timer = time.AfterFunc(timeout, onIdle)
	}
	return c
}

func (c *IdleCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if c.timer != nil && n > 0 {
		c.timer.Reset(c.timeout)
	}
	return n, err
}

func (c *IdleCloser) Close() error {
	c.once.Do(func() {
		if c.timer != nil {
			c.timer.Stop()
		}
	})
	return c.ReadCloser.Close()
}
