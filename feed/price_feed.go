package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptoalert/api"
)

const DefaultInterval = 30 * time.Second

// PriceSource lists the tracked assets. *api.Client implements it.
type PriceSource interface {
	CurrentCrypto(ctx context.Context) ([]api.Asset, error)
}

// Snapshot is one poll result. Fallback is set when Assets is the built-in
// dataset because the backend call failed with Err.
type Snapshot struct {
	Assets   []api.Asset
	Fallback bool
	Err      error
	At       time.Time
}

// Fetch polls src once, substituting the default dataset on failure.
func Fetch(ctx context.Context, src PriceSource) Snapshot {
	assets, err := src.CurrentCrypto(ctx)
	if err != nil || len(assets) == 0 {
		return Snapshot{Assets: DefaultAssets(), Fallback: true, Err: err, At: time.Now()}
	}
	return Snapshot{Assets: assets, At: time.Now()}
}

// PriceFeed polls the price list on a fixed interval and fans snapshots out
// to subscribers. A feed lives for one authenticated scope and stops with
// its context.
type PriceFeed struct {
	source         PriceSource
	updateInterval time.Duration
	log            zerolog.Logger
	subscribers    []chan<- Snapshot
	isRunning      bool
	mu             sync.Mutex
}

func NewPriceFeed(source PriceSource, updateInterval time.Duration, log zerolog.Logger) *PriceFeed {
	if updateInterval <= 0 {
		updateInterval = DefaultInterval
	}
	return &PriceFeed{
		source:         source,
		updateInterval: updateInterval,
		log:            log,
		subscribers:    make([]chan<- Snapshot, 0),
	}
}

// Start polls immediately and then on every tick until ctx is done. It
// blocks; a second concurrent Start returns at once.
func (pf *PriceFeed) Start(ctx context.Context) {
	pf.mu.Lock()
	if pf.isRunning {
		pf.mu.Unlock()
		return
	}
	pf.isRunning = true
	pf.mu.Unlock()

	defer func() {
		pf.mu.Lock()
		pf.isRunning = false
		pf.mu.Unlock()
	}()

	pf.log.Debug().Dur("interval", pf.updateInterval).Msg("price feed started")
	defer pf.log.Debug().Msg("price feed stopped")

	pf.fetchAndBroadcast(ctx)

	ticker := time.NewTicker(pf.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pf.fetchAndBroadcast(ctx)
		}
	}
}

func (pf *PriceFeed) Subscribe(ch chan<- Snapshot) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pf.subscribers = append(pf.subscribers, ch)
}

func (pf *PriceFeed) fetchAndBroadcast(ctx context.Context) {
	snap := Fetch(ctx, pf.source)

	// a cancelled scope must not publish into the next session
	if ctx.Err() != nil {
		return
	}
	if snap.Fallback {
		pf.log.Warn().Err(snap.Err).Msg("price poll failed, serving default dataset")
	}

	pf.mu.Lock()
	subscribers := make([]chan<- Snapshot, len(pf.subscribers))
	copy(subscribers, pf.subscribers)
	pf.mu.Unlock()

	for _, sub := range subscribers {
		select {
		case sub <- snap:
		default:
			// subscriber is behind, it will get the next one
		}
	}
}
