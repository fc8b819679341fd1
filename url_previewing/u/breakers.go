package u

import (
	"sync"

	"github.com/rubyist/circuitbreaker"
)

type hostBreakers struct {
	backoffAt int64
	breakers  *sync.Map
}

func newHostBreakers(backoffAt int) *hostBreakers {
	if backoffAt <= 0 {
		backoffAt = 10
	}
	return &hostBreakers{backoffAt: int64(backoffAt), breakers: &sync.Map{}}
}

func (h *hostBreakers) get(hostname string) *circuit.Breaker {
	if cbRaw, hasCb := h.breakers.Load(hostname); hasCb {
		return cbRaw.(*circuit.Breaker)
	}
	cbRaw, _ := h.breakers.LoadOrStore(hostname, circuit.NewConsecutiveBreaker(h.backoffAt))
	return cbRaw.(*circuit.Breaker)
}
