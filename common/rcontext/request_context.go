package rcontext

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common/config"
)

func Initial() RequestContext {
	return RequestContext{
		Context: context.Background(),
		Log:     logrus.WithFields(logrus.Fields{"nocontext": true}),
		Config:  *config.Get(),
	}.populate()
}

// Detached builds a context around an explicit configuration instead of the global one.
func Detached(cfg config.MainRepoConfig, log *logrus.Entry) RequestContext {
	if log == nil {
		log = logrus.WithFields(logrus.Fields{"nocontext": true})
	}
	return RequestContext{
		Context: context.Background(),
		Log:     log,
		Config:  cfg,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log    *logrus.Entry         // lp.logger
	Config config.MainRepoConfig // lp.config
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, "lp.logger", c.Log)
	c.Context = context.WithValue(c.Context, "lp.config", c.Config)
	return c
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, "lp.logger", log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  c.Config,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}

func (c RequestContext) ReplaceConfig(cfg config.MainRepoConfig) RequestContext {
	return RequestContext{
		Context: context.WithValue(c.Context, "lp.config", cfg),
		Log:     c.Log,
		Config:  cfg,
	}
}

// WithCancel derives a cancellable context. The returned function is the cancellation token for
// whatever runs under the new context.
func (c RequestContext) WithCancel() (RequestContext, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	return RequestContext{
		Context: ctx,
		Log:     c.Log,
		Config:  c.Config,
	}, cancel
}
