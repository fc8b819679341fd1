package metrics

import "sync"

var listenersLock = &sync.Mutex{}
var beforeMetricsCalledFns = make([]func(), 0)

func OnBeforeMetricsRequested(fn func()) {
	listenersLock.Lock()
	beforeMetricsCalledFns = append(beforeMetricsCalledFns, fn)
	listenersLock.Unlock()
}

func callBeforeMetricsRequested() {
	listenersLock.Lock()
	fns := append(make([]func(), 0, len(beforeMetricsCalledFns)), beforeMetricsCalledFns...)
	listenersLock.Unlock()
	for _, fn := range fns {
		fn()
	}
}
