package readers

import (
	"io"

	"github.com/t2bot/link-previewer/common"
)

// LimitReaderWithOverrunError reads at most n bytes and fails with common.ErrContentTooLarge when
// the stream holds more.
func LimitReaderWithOverrunError(r io.ReadCloser, n int64) io.ReadCloser {
	return &limitedReader{r: r, n: n}
}

type limitedReader struct {
	r io.ReadCloser
	n int64
}

func (r *limitedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.n <= 0 {
		// One more byte means the stream is too big
		b := make([]byte, 1)
		n, err := r.r.Read(b)
		if n > 0 {
			return 0, common.ErrContentTooLarge
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, io.EOF
	}

	if int64(len(p)) > r.n {
		p = p[:r.n]
	}
	n, err := r.r.Read(p)
	r.n -= int64(n)
	return n, err
}

func (r *limitedReader) Close() error {
	return r.r.Close()
}
