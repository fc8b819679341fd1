package u

import (
	"context"
	"errors"
	"io"

	"github.com/t2bot/link-previewer/util/readers"
)

var errEndedEarly = errors.New("stream ended before the declared content length")

// fillKnown fills buf completely, one chunk per iteration.
func fillKnown(ctx context.Context, r io.Reader, buf []byte, chunk int) (int, error) {
	if chunk <= 0 {
		chunk = len(buf)
	}
	filled := 0
	for filled < len(buf) {
		if err := checkCancelled(ctx); err != nil {
			return filled, err
		}
		end := filled + chunk
		if end > len(buf) {
			end = len(buf)
		}
		n, err := r.Read(buf[filled:end])
		filled += n
		if err == io.EOF {
			if filled < len(buf) {
				return filled, errEndedEarly
			}
			return filled, nil
		}
		if err != nil {
			return filled, err
		}
	}
	return filled, nil
}

// fillUnknown reads a stream of undeclared length, failing once it exceeds limit bytes.
func fillUnknown(ctx context.Context, r io.ReadCloser, limit int64, chunk int) ([]byte, error) {
	if chunk <= 0 {
		chunk = 32 * 1024
	}
	lr := readers.LimitReaderWithOverrunError(r, limit)
	buf := make([]byte, 0, chunk)
	tmp := make([]byte, chunk)
	for {
		if err := checkCancelled(ctx); err != nil {
			return buf, err
		}
		n, err := lr.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return buf, err
		}
	}
}
