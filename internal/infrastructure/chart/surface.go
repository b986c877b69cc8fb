package chart

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"backtest-backend/internal/domain"
)

// Surface is the minimal contract of the external charting library: accept an
// OHLC series, accept marker annotations, resize to a pixel box.
type Surface interface {
	// Size returns the current pixel box; (0,0) means not ready to draw yet.
	Size() (width, height int)
	SetCandles(candles []domain.Candle) error
	SetMarkers(markers []domain.Marker) error
	Resize(width, height int)
	FitContent()
}

type dataset struct {
	candles []domain.Candle
	markers []domain.Marker
}

// Controller owns one chart surface per lifetime. It waits for the surface to
// gain dimensions before use, buffers the most recent dataset when data
// arrives first, and retries binding on a fixed interval up to a hard attempt
// ceiling. That covers the inherent race between asynchronous surface loading
// and asynchronous data fetching without imposing an order between them.
type Controller struct {
	factory func() (Surface, error)

	mu       sync.Mutex
	surface  Surface
	pending  *dataset
	retrying bool

	// alive is the liveness flag: both retry loops check it before every
	// continuation, so teardown stops them without unbounded waiting.
	alive atomic.Bool

	PollInterval time.Duration
	InitAttempts int
	BindAttempts int
}

func NewController(factory func() (Surface, error)) *Controller {
	c := &Controller{
		factory:      factory,
		PollInterval: 100 * time.Millisecond,
		InitAttempts: 50,
		BindAttempts: 20,
	}
	c.alive.Store(true)
	return c
}

// Init creates the surface once it reports non-zero dimensions. Calling Init
// while a surface is already owned is a no-op; a second instance is never
// created. The poll is bounded: after the attempt ceiling it gives up with a
// logged error rather than hanging.
func (c *Controller) Init() error {
	c.mu.Lock()
	if c.surface != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.InitAttempts; attempt++ {
		if !c.alive.Load() {
			return fmt.Errorf("%w: controller torn down", domain.ErrSurfaceUnavailable)
		}
		s, err := c.factory()
		if err == nil {
			if w, h := s.Size(); w > 0 && h > 0 {
				c.mu.Lock()
				if c.surface == nil {
					c.surface = s
					if c.pending != nil {
						c.bindLocked(*c.pending)
						c.pending = nil
					}
				}
				c.mu.Unlock()
				return nil
			}
			lastErr = fmt.Errorf("surface has no dimensions")
		} else {
			lastErr = err
		}
		time.Sleep(c.PollInterval)
	}
	log.Printf("chart: surface never became ready: %v", lastErr)
	return fmt.Errorf("%w: %v", domain.ErrSurfaceUnavailable, lastErr)
}

// Bind pushes a dataset to the surface. If the surface does not exist yet, the
// dataset is buffered (latest wins) and a bounded retry loop binds it once the
// surface appears, giving up with a logged failure after the attempt ceiling.
func (c *Controller) Bind(candles []domain.Candle, markers []domain.Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface != nil {
		c.bindLocked(dataset{candles: candles, markers: markers})
		return
	}

	c.pending = &dataset{candles: candles, markers: markers}
	if !c.retrying {
		c.retrying = true
		go c.retryBind()
	}
}

func (c *Controller) retryBind() {
	for attempt := 0; attempt < c.BindAttempts; attempt++ {
		time.Sleep(c.PollInterval)
		if !c.alive.Load() {
			return
		}
		c.mu.Lock()
		if c.surface != nil {
			if c.pending != nil {
				c.bindLocked(*c.pending)
				c.pending = nil
			}
			c.retrying = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
	c.mu.Lock()
	c.retrying = false
	c.pending = nil
	c.mu.Unlock()
	log.Printf("chart: giving up binding data: surface never appeared")
}

// bindLocked prefers failing loudly over crashing: a surface rejecting a call
// (external contract drift) is logged, never propagated as a panic.
func (c *Controller) bindLocked(d dataset) {
	if err := c.surface.SetCandles(d.candles); err != nil {
		log.Printf("chart: set candles failed: %v", err)
		return
	}
	if err := c.surface.SetMarkers(d.markers); err != nil {
		log.Printf("chart: set markers failed: %v", err)
	}
	c.surface.FitContent()
}

// Resize recomputes the pixel box and re-fits the time axis.
func (c *Controller) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return
	}
	c.surface.Resize(width, height)
	c.surface.FitContent()
}

// Surface returns the owned surface, or nil before Init succeeds.
func (c *Controller) Surface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Teardown flips the liveness flag, stopping both retry loops, and releases
// the instance. A controller is not reusable after teardown.
func (c *Controller) Teardown() {
	c.alive.Store(false)
	c.mu.Lock()
	c.surface = nil
	c.pending = nil
	c.mu.Unlock()
}
