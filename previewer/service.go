package previewer

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/errcache"
	"github.com/t2bot/link-previewer/pool"
	"github.com/t2bot/link-previewer/thumbnailing"
	"github.com/t2bot/link-previewer/url_previewing/m"
	"github.com/t2bot/link-previewer/url_previewing/u"
)

type Option func(s *Service)

// WithClient makes the service fetch through an existing client instead of building one from
// the configuration. The client is kept across Reconfigure.
func WithClient(client *u.Client) Option {
	return func(s *Service) {
		s.client = client
		s.injectedClient = true
	}
}

// WithUnsupportedMemo shares a memo of unsupported URLs between services.
func WithUnsupportedMemo(memo *errcache.ErrCache) Option {
	return func(s *Service) {
		s.memo = memo
	}
}

// Service owns the instance cache and runs every preview state change on a single loop
// goroutine. Fetching and decoding happen on a worker pool.
type Service struct {
	events   chan func()
	stopping chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	fetches  sync.WaitGroup

	cfgLock sync.RWMutex
	cfg     config.MainRepoConfig

	// Owned by the loop
	ctx            rcontext.RequestContext
	client         *u.Client
	injectedClient bool
	cache          *InstanceCache
	queue          *pool.Queue
	memo           *errcache.ErrCache
	nextGeneration uint64
}

func NewService(ctx rcontext.RequestContext, opts ...Option) (*Service, error) {
	s := &Service{
		events:   make(chan func(), 64),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		cfg:      ctx.Config,
		ctx:      ctx.LogWithFields(logrus.Fields{"component": "previewer"}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := u.NewClient(ctx.Config)
		if err != nil {
			return nil, fmt.Errorf("error creating http client: %w", err)
		}
		s.client = client
	}
	if s.memo == nil {
		s.memo = errcache.NewUnsupportedMemo(ctx.Config.UrlPreviews)
	}

	cache, err := newInstanceCache(ctx.Config.Cache.MaxInstances, func(rawUrl string, key string) *Previewer {
		return newPreviewer(s, rawUrl, key)
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache

	queue, err := pool.NewQueue(ctx.Config.UrlPreviews.NumWorkers, "url_previews")
	if err != nil {
		return nil, fmt.Errorf("error creating worker pool: %w", err)
	}
	s.queue = queue

	go s.run()
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return s, nil
}

func (s *Service) config() config.MainRepoConfig {
	s.cfgLock.RLock()
	defer s.cfgLock.RUnlock()
	return s.cfg
}

// Get returns the Previewer for a URL, creating an idle one when the cache has none.
func (s *Service) Get(rawUrl string) (*Previewer, error) {
	return callValue(s, func() *Previewer {
		return s.cache.getOrCreate(rawUrl)
	})
}

// Preview is Get followed by Previewer.Preview, in one step on the loop.
func (s *Service) Preview(rawUrl string) (*Previewer, error) {
	var p *Previewer
	err := callErr(s, func() error {
		p = s.cache.getOrCreate(rawUrl)
		return p.preview()
	})
	return p, err
}

// Peek returns the cached Previewer for a URL without creating it or changing its recency.
func (s *Service) Peek(rawUrl string) (*Previewer, bool, error) {
	var p *Previewer
	var ok bool
	err := s.call(func() {
		p, ok = s.cache.peek(rawUrl)
	})
	return p, ok, err
}

func (s *Service) Len() (int, error) {
	return callValue(s, s.cache.len)
}

// Keys returns the normalized URLs in the cache, least recently used first.
func (s *Service) Keys() ([]string, error) {
	return callValue(s, s.cache.keys)
}

// Reconfigure applies a new configuration to future fetches. Fetches already running finish with
// the configuration they started with.
func (s *Service) Reconfigure(cfg config.MainRepoConfig) error {
	var client *u.Client
	if !s.injectedClient {
		var err error
		client, err = u.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("error creating http client: %w", err)
		}
	}

	return s.call(func() {
		s.cfgLock.Lock()
		s.cfg = cfg
		s.cfgLock.Unlock()

		s.ctx = s.ctx.ReplaceConfig(cfg)
		if client != nil {
			old := s.client
			s.client = client
			// Idle connections only, running fetches keep theirs
			old.CloseIdleConnections()
		}
		s.cache.resize(cfg.Cache.MaxInstances)
		s.queue.Tune(cfg.UrlPreviews.NumWorkers)
		errcache.AdjustSize(s.memo, cfg.UrlPreviews)
		s.ctx.Log.Info("Previewer reconfigured")
	})
}

// Stop cancels every in-flight fetch and shuts the loop down. Later calls on the service or its
// Previewers fail with common.ErrServiceStopped.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		// Evicting everything cancels whatever is still loading
		_ = s.call(s.cache.purge)
		close(s.stopping)
		<-s.done
		s.fetches.Wait()
		s.queue.Release()
		s.client.CloseIdleConnections()
		s.ctx.Log.Info("Previewer stopped")
	})
}

// Done is closed once the service has stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// startFetch runs on the loop.
func (s *Service) startFetch(p *Previewer) {
	s.nextGeneration++
	generation := s.nextGeneration
	ctx, cancel := s.ctx.LogWithFields(logrus.Fields{"url": p.url, "fetch": generation}).WithCancel()
	p.beginLoading(&pendingRequest{generation: generation, started: time.Now(), cancel: cancel})

	client := s.client
	target := p.target
	task := func() {
		defer s.fetches.Done()
		s.fetchAndDecode(ctx, client, p, target, generation)
	}

	s.fetches.Add(1)
	go func() {
		// Schedule blocks while the pool is saturated, which the loop must never do
		if err := s.queue.Schedule(task); err != nil {
			s.fetches.Done()
			ctx.Log.Error("Error scheduling fetch: ", err)
			s.post(func() {
				p.fetchFailed(generation, fmt.Errorf("%w: %w", common.ErrNetworkFailure, err))
			})
		}
	}()
}

// fetchAndDecode runs on a pool worker. Every outcome goes back to the loop, which drops the ones
// belonging to a fetch that is no longer current.
func (s *Service) fetchAndDecode(ctx rcontext.RequestContext, client *u.Client, p *Previewer, target *url.URL, generation uint64) {
	res, err := u.Fetch(ctx, client, target, func(headers m.Headers) {
		s.post(func() {
			p.headersReceived(generation, headers)
		})
	})
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
	}
	if err != nil {
		s.post(func() {
			p.fetchFailed(generation, err)
		})
		return
	}

	img, err := buildPreviewImage(ctx, res)
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
	}
	if err != nil {
		s.post(func() {
			p.fetchFailed(generation, err)
		})
		return
	}
	s.post(func() {
		p.fetchSucceeded(generation, img)
	})
}

func buildPreviewImage(ctx rcontext.RequestContext, res *m.FetchResult) (*m.PreviewImage, error) {
	full, mimeType, err := thumbnailing.Decode(ctx, res.MimeType, res.Data)
	if err != nil {
		return nil, err
	}

	cfg := ctx.Config.Thumbnails
	thumb := thumbnailing.Thumbnail(full, cfg.Width, cfg.Height)
	img := &m.PreviewImage{
		Full:            full,
		Thumbnail:       thumb,
		Width:           full.Bounds().Dx(),
		Height:          full.Bounds().Dy(),
		ThumbnailWidth:  thumb.Bounds().Dx(),
		ThumbnailHeight: thumb.Bounds().Dy(),
		MimeType:        mimeType,
	}
	if cfg.Blurhash.Enabled {
		hash, err := thumbnailing.Blurhash(thumb, cfg.Blurhash.XComponents, cfg.Blurhash.YComponents)
		if err != nil {
			ctx.Log.Warn("Non-fatal error calculating blurhash: ", err)
		} else {
			img.Blurhash = hash
		}
	}
	return img, nil
}
