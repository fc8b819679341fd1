package main

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/previewer"
	"github.com/t2bot/link-previewer/thumbnailing"
	"github.com/t2bot/link-previewer/url_previewing/m"
)

// session tracks the previews requested from the command line until each one settles.
type session struct {
	svc       *previewer.Service
	outDir    string
	writeFull bool
	areaW     int
	areaH     int

	lock       sync.Mutex
	subscribed map[string]bool
	waiting    map[string]bool
	settled    *sync.Cond
	written    int
}

func newSession(svc *previewer.Service, outDir string, writeFull bool, areaW int, areaH int) *session {
	s := &session{
		svc:        svc,
		outDir:     outDir,
		writeFull:  writeFull,
		areaW:      areaW,
		areaH:      areaH,
		subscribed: make(map[string]bool),
		waiting:    make(map[string]bool),
	}
	s.settled = sync.NewCond(&s.lock)
	return s
}

func (s *session) handle(line string) {
	if rest, ok := strings.CutPrefix(line, "cancel "); ok {
		p, found, err := s.svc.Peek(rest)
		if err != nil {
			logrus.Error(err)
			return
		}
		if !found {
			logrus.Warn("Nothing to cancel for ", rest)
			return
		}
		if err = p.Cancel(); err != nil {
			logrus.Error(err)
		}
		return
	}

	p, err := s.svc.Get(line)
	if err != nil {
		logrus.Error(err)
		return
	}

	s.lock.Lock()
	if !s.subscribed[p.Key()] {
		s.subscribed[p.Key()] = true
		p.Subscribe(previewer.ObserverFuncs{
			OnContentTypeChanged: s.contentTypeChanged,
			OnStateChanged:       s.stateChanged,
		})
	}
	s.waiting[p.Key()] = true
	s.lock.Unlock()

	if err = p.Preview(); err != nil {
		logrus.WithField("url", line).Warn(err)
		if !errors.Is(err, common.ErrAlreadyLoading) {
			s.settle(p.Key())
		}
		return
	}

	snapshot, err := p.Snapshot()
	if err == nil && snapshot.State != m.StateLoading {
		// Already previewed: nothing else will be announced
		s.settle(p.Key())
		if snapshot.State == m.StateImage {
			logrus.WithField("url", line).Info("Already previewed")
		}
	}
}

func (s *session) settle(key string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.waiting[key] {
		delete(s.waiting, key)
		s.settled.Broadcast()
	}
}

// wait blocks until every requested preview has settled, or the service stops.
func (s *session) wait(done <-chan struct{}) {
	go func() {
		<-done
		s.lock.Lock()
		s.waiting = make(map[string]bool)
		s.settled.Broadcast()
		s.lock.Unlock()
	}()

	s.lock.Lock()
	defer s.lock.Unlock()
	for len(s.waiting) > 0 {
		s.settled.Wait()
	}
}

func (s *session) contentTypeChanged(p *previewer.Previewer, contentType m.ContentType) {
	logrus.WithField("url", p.Url()).Info("Content type: ", contentType)
}

// stateChanged runs on the service loop, so it must not call back into the service.
func (s *session) stateChanged(p *previewer.Previewer, state m.State, payload m.Payload) {
	log := logrus.WithFields(logrus.Fields{"url": p.Url(), "state": state.String()})
	switch state {
	case m.StateLoading:
		log.Info("Loading")
		return
	case m.StateIdle:
		log.Info("Idle")
	case m.StateText:
		if payload.IsError {
			log.Warn(payload.Text)
		} else {
			log.Info(payload.Text)
		}
	case m.StateImage:
		img := payload.Image
		log.WithFields(logrus.Fields{
			"mime":     img.MimeType,
			"size":     fmt.Sprintf("%dx%d", img.Width, img.Height),
			"thumb":    fmt.Sprintf("%dx%d", img.ThumbnailWidth, img.ThumbnailHeight),
			"blurhash": img.Blurhash,
		}).Info("Previewed")
		s.save(log, img)
	}
	s.settle(p.Key())
}

func (s *session) save(log *logrus.Entry, img *m.PreviewImage) {
	if s.outDir == "" {
		return
	}
	s.lock.Lock()
	s.written++
	n := s.written
	s.lock.Unlock()

	thumbPath := path.Join(s.outDir, fmt.Sprintf("preview-%d.png", n))
	if err := imaging.Save(img.Thumbnail, thumbPath); err != nil {
		log.Error("Error writing thumbnail: ", err)
		return
	}
	log.Info("Wrote ", thumbPath)

	if s.writeFull {
		full := thumbnailing.FitForDisplay(img.Full, s.areaW, s.areaH, config.Get().Thumbnails.DisplayMargin)
		fullPath := path.Join(s.outDir, fmt.Sprintf("preview-%d-full.png", n))
		if err := imaging.Save(full, fullPath); err != nil {
			log.Error("Error writing full image: ", err)
			return
		}
		log.Info("Wrote ", fullPath)
	}
}
