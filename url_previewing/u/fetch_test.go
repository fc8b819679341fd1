package u

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/url_previewing/m"
)

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// trackingBody records whether anything tried to read it.
type trackingBody struct {
	io.Reader
	reads  int32
	closed int32
}

func (b *trackingBody) Read(p []byte) (int, error) {
	atomic.AddInt32(&b.reads, 1)
	return b.Reader.Read(p)
}

func (b *trackingBody) Close() error {
	atomic.StoreInt32(&b.closed, 1)
	return nil
}

func testConfig() config.MainRepoConfig {
	cfg := config.NewDefaultMainConfig()
	cfg.UrlPreviews.DefaultLanguage = "en"
	return cfg
}

func mustParse(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func imageResponse(r *http.Request, body io.ReadCloser, length int64) *http.Response {
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"image/png"}},
		ContentLength: length,
		Body:          body,
		Request:       r,
	}
}

func TestFetchSuccess(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 200000)
	var userAgent, language string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		language = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Header().Set("Content-Disposition", `inline; filename="cat.png"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.UrlPreviews.FillChunkBytes = 4096
	client, err := NewClient(cfg)
	require.NoError(t, err)

	var headers *m.Headers
	res, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL+"/cat.png"), func(h m.Headers) {
		headers = &h
	})
	require.NoError(t, err)
	require.NotNil(t, headers)
	assert.Equal(t, "image/png", headers.MimeType)
	assert.Equal(t, "cat.png", headers.Filename)
	assert.Equal(t, int64(len(payload)), headers.ContentLength)
	assert.Equal(t, payload, res.Data)
	assert.Contains(t, userAgent, "link-previewer/")
	assert.Equal(t, "en", language)
}

func TestFetchDeclaredTooLargeNeverReadsBody(t *testing.T) {
	cfg := testConfig()
	body := &trackingBody{Reader: bytes.NewReader(nil)}
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return imageResponse(r, body, cfg.UrlPreviews.MaxContentLengthBytes+1), nil
	}))

	headersSeen := false
	_, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, "http://example.org/big.png"), func(h m.Headers) {
		headersSeen = true
	})
	assert.ErrorIs(t, err, common.ErrContentTooLarge)
	assert.False(t, headersSeen)
	assert.Equal(t, int32(0), atomic.LoadInt32(&body.reads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&body.closed))
	assert.Equal(t, "Exceed max content length", common.Describe(err))
}

func TestFetchExactlyAtLimitIsAllowed(t *testing.T) {
	cfg := testConfig()
	cfg.UrlPreviews.MaxContentLengthBytes = 1024
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return imageResponse(r, io.NopCloser(bytes.NewReader(make([]byte, 1024))), 1024), nil
	}))
	res, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, "http://example.org/a.png"), nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 1024)
}

func TestFetchUnsupportedContentType(t *testing.T) {
	cases := []string{"text/html; charset=utf-8", "application/pdf", ";charset=utf-8", "", "image/svg+xml", "image/heic"}
	for _, ct := range cases {
		cfg := testConfig()
		client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp := imageResponse(r, io.NopCloser(bytes.NewReader([]byte("<html>"))), 6)
			resp.Header.Set("Content-Type", ct)
			return resp, nil
		}))
		_, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, "http://example.org/"), func(h m.Headers) {
			t.Errorf("headers callback fired for %q", ct)
		})
		assert.ErrorIs(t, err, common.ErrUnsupportedContent, ct)
		assert.Equal(t, "Unsupported URL content type", common.Describe(err))
	}
}

func TestFetchChunkedOverrun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		for i := 0; i < 8; i++ {
			_, _ = w.Write(make([]byte, 512))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.UrlPreviews.MaxContentLengthBytes = 1024
	client, err := NewClient(cfg)
	require.NoError(t, err)

	var headers m.Headers
	_, err = Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL), func(h m.Headers) {
		headers = h
	})
	assert.ErrorIs(t, err, common.ErrContentTooLarge)
	assert.Equal(t, int64(-1), headers.ContentLength)
}

func TestFetchChunkedWithinLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		for i := 0; i < 4; i++ {
			_, _ = w.Write(bytes.Repeat([]byte{byte(i)}, 100))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	res, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL), nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 400)
	assert.Equal(t, byte(3), res.Data[399])
}

func TestFetchEarlyEOF(t *testing.T) {
	cfg := testConfig()
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return imageResponse(r, io.NopCloser(bytes.NewReader(make([]byte, 10))), 100), nil
	}))
	_, err := Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, "http://example.org/a.png"), nil)
	assert.ErrorIs(t, err, common.ErrNetworkFailure)
	assert.NotErrorIs(t, err, common.ErrCancelled)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig()
	client, err := NewClient(cfg)
	require.NoError(t, err)
	_, err = Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL), nil)
	assert.ErrorIs(t, err, common.ErrNetworkFailure)
}

func TestFetchCancelledBeforeRequest(t *testing.T) {
	cfg := testConfig()
	var calls int32
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return imageResponse(r, io.NopCloser(bytes.NewReader(nil)), 0), nil
	}))

	ctx, cancel := rcontext.Detached(cfg, nil).WithCancel()
	cancel()
	_, err := Fetch(ctx, client, mustParse(t, "http://example.org/a.png"), nil)
	assert.ErrorIs(t, err, common.ErrCancelled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFetchCancelledAfterHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.UrlPreviews.FillChunkBytes = 16
	body := &trackingBody{Reader: bytes.NewReader(make([]byte, 4096))}
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return imageResponse(r, body, 4096), nil
	}))

	ctx, cancel := rcontext.Detached(cfg, nil).WithCancel()
	_, err := Fetch(ctx, client, mustParse(t, "http://example.org/a.png"), func(h m.Headers) {
		cancel()
	})
	assert.ErrorIs(t, err, common.ErrCancelled)
	assert.Equal(t, "cancelled", common.Reason(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&body.reads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&body.closed))
}

func TestFetchCancelDuringStalledBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(make([]byte, 10))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	client, err := NewClient(cfg)
	require.NoError(t, err)

	ctx, cancel := rcontext.Detached(cfg, nil).WithCancel()
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, client, mustParse(t, srv.URL), func(h m.Headers) {
			time.AfterFunc(50*time.Millisecond, cancel)
		})
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, common.ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("fetch ignored cancellation")
	}
}

func TestFetchIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(make([]byte, 10))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.TimeoutSeconds.IdleRead = 1
	client, err := NewClient(cfg)
	require.NoError(t, err)

	started := time.Now()
	_, err = Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL), nil)
	assert.ErrorIs(t, err, common.ErrNetworkFailure)
	assert.ErrorIs(t, err, errIdleTimeout)
	assert.True(t, time.Since(started) < 10*time.Second)
}

func TestFetchDeniedNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.UrlPreviews.DisallowedNetworks = []string{"127.0.0.0/8", "::1/128"}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	_, err = Fetch(rcontext.Detached(cfg, nil), client, mustParse(t, srv.URL), nil)
	assert.ErrorIs(t, err, common.ErrNetworkFailure)
	assert.ErrorIs(t, err, common.ErrHostNotAllowed)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFetchBreakerOpensAfterFailures(t *testing.T) {
	cfg := testConfig()
	cfg.UrlPreviews.BackoffAt = 2
	var calls int32
	client := NewClientWithTransport(cfg, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{StatusCode: http.StatusBadGateway, Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(nil)), Request: r}, nil
	}))

	target := mustParse(t, "http://flaky.example.org/a.png")
	for i := 0; i < 2; i++ {
		_, err := Fetch(rcontext.Detached(cfg, nil), client, target, nil)
		assert.ErrorIs(t, err, common.ErrNetworkFailure)
	}
	_, err := Fetch(rcontext.Detached(cfg, nil), client, target, nil)
	assert.ErrorIs(t, err, common.ErrHostUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
