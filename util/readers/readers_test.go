package readers

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/link-previewer/common"
)

func TestLimitReaderWithinLimit(t *testing.T) {
	r := LimitReaderWithOverrunError(io.NopCloser(bytes.NewReader([]byte("hello"))), 5)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestLimitReaderOverrun(t *testing.T) {
	r := LimitReaderWithOverrunError(io.NopCloser(bytes.NewReader([]byte("hello world"))), 5)
	b, err := io.ReadAll(r)
	assert.ErrorIs(t, err, common.ErrContentTooLarge)
	assert.Equal(t, "hello", string(b))
}

func TestIdleCloserFires(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	fired := make(chan struct{})
	c := NewIdleCloser(pr, 20*time.Millisecond, func() {
		close(fired)
	})
	defer c.Close()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("idle callback never fired")
	}
}

func TestIdleCloserStopsOnClose(t *testing.T) {
	fired := make(chan struct{}, 1)
	c := NewIdleCloser(io.NopCloser(bytes.NewReader([]byte("x"))), 30*time.Millisecond, func() {
		fired <- struct{}{}
	})
	_, err := io.ReadAll(c)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	select {
	case <-fired:
		t.Fatal("idle callback fired after close")
	case <-time.After(100 * time.Millisecond):
	}
}
