package tasks

import (
	"github.com/desertthunder/ytq/internal/models"
	"golang.org/x/time/rate"
)

// DefaultProgressRate is the number of progress events per second a download may emit.
const DefaultProgressRate = 10.0

// Forward relays snapshots read from in to emit until in is closed.
//
// Snapshots arriving faster than perSecond are coalesced; the most recent one is always
// emitted before Forward returns.
func Forward(in <-chan models.Progress, perSecond float64, emit func(models.Progress)) {
	if perSecond <= 0 {
		perSecond = DefaultProgressRate
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)

	var (
		last    models.Progress
		pending bool
	)
	for p := range in {
		if limiter.Allow() {
			emit(p)
			pending = false
			continue
		}
		last, pending = p, true
	}
	if pending {
		emit(last)
	}
}
