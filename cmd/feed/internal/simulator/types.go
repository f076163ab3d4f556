package simulator

import (
	"math/rand"
	"time"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
}

// for deterministic values
type Rand interface {
	Float64() float64
}

// Broadcaster is the fan-out the engine publishes to.
type Broadcaster interface {
	Publish(evt hub.Event)
	Subscribe(initial ...hub.Event) *hub.Subscription
	Unsubscribe(id int64)
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type RealRand struct{ *rand.Rand }

func NewRealRand(seed int64) RealRand {
	return RealRand{Rand: rand.New(rand.NewSource(seed))}
}

func (r RealRand) Float64() float64 { return r.Rand.Float64() }
