package previewer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/url_previewing/m"
	"github.com/t2bot/link-previewer/url_previewing/u"
)

const waitTimeout = 5 * time.Second

type event struct {
	contentType *m.ContentType
	state       *m.State
	payload     m.Payload
}

type recorder struct {
	events chan event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan event, 256)}
}

func (r *recorder) ContentTypeChanged(p *Previewer, contentType m.ContentType) {
	r.events <- event{contentType: &contentType}
}

func (r *recorder) StateChanged(p *Previewer, state m.State, payload m.Payload) {
	r.events <- event{state: &state, payload: payload}
}

func (r *recorder) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an event")
		return event{}
	}
}

// waitState skips events until the given state arrives.
func (r *recorder) waitState(t *testing.T, state m.State) event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case e := <-r.events:
			if e.state != nil && *e.state == state {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", state)
			return event{}
		}
	}
}

func (r *recorder) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(d):
	}
}

type countingTransport struct {
	calls int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.next == nil {
		return nil, errors.New("network disabled in test")
	}
	return c.next.RoundTrip(r)
}

func (c *countingTransport) count() int32 {
	return atomic.LoadInt32(&c.calls)
}

func testConfig() config.MainRepoConfig {
	cfg := config.NewDefaultMainConfig()
	cfg.UrlPreviews.DefaultLanguage = "en"
	cfg.UrlPreviews.NumWorkers = 4
	return cfg
}

// newTestService builds a service whose requests all pass through the returned transport.
func newTestService(t *testing.T, cfg config.MainRepoConfig, next http.RoundTripper) (*Service, *countingTransport) {
	transport := &countingTransport{next: next}
	svc, err := NewService(rcontext.Detached(cfg, nil), WithClient(u.NewClientWithTransport(cfg, transport)))
	require.NoError(t, err)
	t.Cleanup(svc.Stop)
	return svc, transport
}

func pngBytes(t *testing.T, w int, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func snapshot(t *testing.T, p *Previewer) Snapshot {
	t.Helper()
	s, err := p.Snapshot()
	require.NoError(t, err)
	return s
}
