package previewer

import (
	"context"
	"errors"
	"image"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/thumbnailing"
	"github.com/t2bot/link-previewer/url_previewing/m"
	"github.com/t2bot/link-previewer/url_previewing/u"
)

type pendingRequest struct {
	generation uint64
	started    time.Time
	cancel     context.CancelFunc
}

// Previewer is the preview of one URL. Its state only changes on the service loop; the exported
// methods hop onto the loop and are safe to call from any goroutine except an Observer callback.
type Previewer struct {
	svc    *Service
	url    string
	key    string
	target *url.URL

	contentType m.ContentType
	mimeType    string
	state       m.State
	previewed   bool
	expanded    bool
	evicted     bool
	pending     *pendingRequest
	image       *m.PreviewImage
	text        string

	obsLock      sync.Mutex
	observers    []subscription
	nextObserver int
}

// Snapshot is a consistent copy of a Previewer's state.
type Snapshot struct {
	Url         string
	Key         string
	ContentType m.ContentType
	MimeType    string
	State       m.State
	Previewed   bool
	Expanded    bool
	Evicted     bool
	Loading     bool
	Text        string
	Image       *m.PreviewImage
}

func newPreviewer(svc *Service, rawUrl string, key string) *Previewer {
	p := &Previewer{
		svc:         svc,
		url:         rawUrl,
		key:         key,
		contentType: u.Classify(rawUrl),
		state:       m.StateIdle,
	}
	if p.contentType == m.ContentUnknown {
		p.target, _ = u.ParseTarget(rawUrl)
		if err := svc.memo.Get(key); err != nil {
			p.log().Debug("URL is remembered as unsupported")
			p.contentType = m.ContentUnsupported
		}
	}
	return p
}

func (p *Previewer) Url() string {
	return p.url
}

func (p *Previewer) Key() string {
	return p.key
}

// Subscribe registers an observer and returns the function which removes it. Unsubscribing is
// allowed from inside a callback.
func (p *Previewer) Subscribe(o Observer) func() {
	p.obsLock.Lock()
	defer p.obsLock.Unlock()
	p.nextObserver++
	id := p.nextObserver
	p.observers = append(p.observers, subscription{id: id, observer: o})
	return func() {
		p.obsLock.Lock()
		defer p.obsLock.Unlock()
		for i, s := range p.observers {
			if s.id == id {
				p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
				return
			}
		}
	}
}

// Preview starts loading the URL. It fails with common.ErrAlreadyLoading while a fetch is in flight
// and does nothing once an image has been previewed.
func (p *Previewer) Preview() error {
	return callErr(p.svc, p.preview)
}

// Cancel aborts an in-flight fetch and returns the Previewer to idle. It does nothing otherwise.
func (p *Previewer) Cancel() error {
	return p.svc.call(func() {
		p.cancel()
	})
}

func (p *Previewer) Snapshot() (Snapshot, error) {
	return callValue(p.svc, p.snapshot)
}

// FullImage returns the full resolution image fitted into an area, less the display margin.
func (p *Previewer) FullImage(areaW int, areaH int) (image.Image, error) {
	img, err := callValue(p.svc, func() *m.PreviewImage {
		return p.image
	})
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, common.ErrNotPreviewed
	}
	margin := p.svc.config().Thumbnails.DisplayMargin
	return thumbnailing.FitForDisplay(img.Full, areaW, areaH, margin), nil
}

func (p *Previewer) log() *logrus.Entry {
	return p.svc.ctx.Log.WithField("url", p.url)
}

func (p *Previewer) snapshot() Snapshot {
	return Snapshot{
		Url:         p.url,
		Key:         p.key,
		ContentType: p.contentType,
		MimeType:    p.mimeType,
		State:       p.state,
		Previewed:   p.previewed,
		Expanded:    p.expanded,
		Evicted:     p.evicted,
		Loading:     p.pending != nil,
		Text:        p.text,
		Image:       p.image,
	}
}

func (p *Previewer) preview() error {
	if p.evicted {
		return common.ErrInstanceEvicted
	}
	if p.state == m.StateLoading {
		return common.ErrAlreadyLoading
	}
	p.expanded = true

	if p.contentType == m.ContentUnsupported {
		p.log().Debug("Not fetching unsupported URL")
		metrics.UrlPreviewFailures.WithLabelValues(common.Reason(common.ErrUnsupportedContent)).Inc()
		p.showError(common.Describe(common.ErrUnsupportedContent))
		return nil
	}
	if p.previewed {
		return nil
	}
	p.svc.startFetch(p)
	return nil
}

// cancel reports whether an in-flight fetch was aborted.
func (p *Previewer) cancel() bool {
	if p.state != m.StateLoading || p.previewed || p.pending == nil {
		return false
	}
	p.pending.cancel()
	p.pending = nil
	metrics.UrlPreviewFailures.WithLabelValues(common.Reason(common.ErrCancelled)).Inc()
	p.log().Debug("Preview cancelled")
	p.setState(m.StateIdle)
	return true
}

func (p *Previewer) isCurrent(generation uint64) bool {
	return p.pending != nil && p.pending.generation == generation && p.state == m.StateLoading
}

func (p *Previewer) beginLoading(req *pendingRequest) {
	p.pending = req
	p.image = nil
	p.text = ""
	p.setState(m.StateLoading)
}

func (p *Previewer) headersReceived(generation uint64, headers m.Headers) {
	if !p.isCurrent(generation) {
		return
	}
	p.setContentType(m.ContentImage, headers.MimeType)
}

func (p *Previewer) fetchFailed(generation uint64, err error) {
	if !p.isCurrent(generation) {
		return
	}
	if errors.Is(err, common.ErrCancelled) {
		// Cancelled from outside the loop, eg: by the service context
		p.cancel()
		return
	}

	p.finishPending()
	if errors.Is(err, common.ErrUnsupportedContent) {
		p.svc.memo.Set(p.key, common.ErrUnsupportedContent)
		p.setContentType(m.ContentUnsupported, "")
	}
	metrics.UrlPreviewFailures.WithLabelValues(common.Reason(err)).Inc()
	p.log().Info("Preview failed: ", err)
	p.showError(common.Describe(err))
}

func (p *Previewer) fetchSucceeded(generation uint64, img *m.PreviewImage) {
	if !p.isCurrent(generation) {
		return
	}
	took := time.Since(p.pending.started)
	p.finishPending()
	p.setContentType(m.ContentImage, img.MimeType)
	p.mimeType = img.MimeType
	p.image = img
	p.text = ""
	p.previewed = true
	metrics.UrlPreviewsGenerated.WithLabelValues(m.ContentImage.String()).Inc()
	p.log().Infof("Previewed %dx%d %s in %s", img.Width, img.Height, img.MimeType, took)
	p.setState(m.StateImage)
}

func (p *Previewer) finishPending() {
	if p.pending == nil {
		return
	}
	p.pending.cancel()
	p.pending = nil
}

// showError leaves the instance retryable: text states are never previewed.
func (p *Previewer) showError(text string) {
	p.image = nil
	p.text = text
	p.previewed = false
	p.setState(m.StateText)
}

// setContentType moves the hypothesis forward: unknown may become image or unsupported, and image
// may become unsupported. Anything else is ignored.
func (p *Previewer) setContentType(contentType m.ContentType, mimeType string) {
	if contentType == p.contentType {
		if contentType == m.ContentImage && mimeType != "" {
			p.mimeType = mimeType
		}
		return
	}
	switch {
	case p.contentType == m.ContentUnknown:
	case p.contentType == m.ContentImage && contentType == m.ContentUnsupported:
	default:
		return
	}

	p.contentType = contentType
	if contentType == m.ContentImage {
		p.mimeType = mimeType
	} else {
		p.mimeType = ""
	}
	for _, o := range p.currentObservers() {
		o.ContentTypeChanged(p, contentType)
	}
}

func (p *Previewer) setState(state m.State) {
	p.state = state
	payload := p.payload()
	for _, o := range p.currentObservers() {
		o.StateChanged(p, state, payload)
	}
}

func (p *Previewer) payload() m.Payload {
	switch p.state {
	case m.StateText:
		return m.ErrorText(p.text)
	case m.StateImage:
		return m.ImagePayload(p.image)
	default:
		return m.Payload{}
	}
}

func (p *Previewer) currentObservers() []Observer {
	p.obsLock.Lock()
	defer p.obsLock.Unlock()
	observers := make([]Observer, 0, len(p.observers))
	for _, s := range p.observers {
		observers = append(observers, s.observer)
	}
	return observers
}
