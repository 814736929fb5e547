package sim

import (
	"log"
	"math/rand"
	"time"

	"shovebox/server/logging"
)

// Deps carries shared infrastructure dependencies injected into the engine.
type Deps struct {
	Logger    *log.Logger
	Publisher logging.Publisher
	Metrics   *logging.Metrics
	Clock     logging.Clock
	RNG       *rand.Rand
}

// normalized fills nil dependencies with safe defaults so engine code can
// use them unconditionally.
func (d Deps) normalized() Deps {
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Clock == nil {
		d.Clock = logging.ClockFunc(time.Now)
	}
	return d
}
