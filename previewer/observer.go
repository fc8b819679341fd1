package previewer

import (
	"github.com/t2bot/link-previewer/url_previewing/m"
)

// Observer receives the events of a Previewer. Callbacks run on the service loop: they must
// return quickly and must not call back into the Service or Previewer synchronously.
type Observer interface {
	ContentTypeChanged(p *Previewer, contentType m.ContentType)
	StateChanged(p *Previewer, state m.State, payload m.Payload)
}

// ObserverFuncs adapts plain functions to an Observer. Nil functions are skipped.
type ObserverFuncs struct {
	OnContentTypeChanged func(p *Previewer, contentType m.ContentType)
	OnStateChanged       func(p *Previewer, state m.State, payload m.Payload)
}

func (o ObserverFuncs) ContentTypeChanged(p *Previewer, contentType m.ContentType) {
	if o.OnContentTypeChanged != nil {
		o.OnContentTypeChanged(p, contentType)
	}
}

func (o ObserverFuncs) StateChanged(p *Previewer, state m.State, payload m.Payload) {
	if o.OnStateChanged != nil {
		o.OnStateChanged(p, state, payload)
	}
}

type subscription struct {
	id       int
	observer Observer
}
