package capture

import (
	"context"
	"sync"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/intercept"
)

// await races the capture event against a polling sweep. The first result
// wins, the other task is cancelled, and both have exited before it returns.
func (c *Controller) await(ctx context.Context, region *host.Region, events <-chan intercept.Event, known map[string]bool, timeout time.Duration) (*Handle, error) {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan *Handle, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.listen(raceCtx, events, known, results)
	}()
	go func() {
		defer wg.Done()
		c.poll(raceCtx, region, known, results)
	}()

	var h *Handle
	select {
	case h = <-results:
	case <-raceCtx.Done():
	}
	cancel()
	wg.Wait()

	if h != nil {
		return h, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrTimeout
}

func (c *Controller) listen(ctx context.Context, events <-chan intercept.Event, known map[string]bool, out chan<- *Handle) {
	if events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if known[ev.Handle] {
				continue
			}
			out <- &Handle{ID: ev.Handle, Element: ev.Element, Timestamp: ev.Timestamp}
			return
		}
	}
}

func (c *Controller) poll(ctx context.Context, region *host.Region, known map[string]bool, out chan<- *Handle) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, el := range c.sweepTargets(region) {
			src := el.Src()
			if known[src] || !intercept.IsResourceHandle(src) {
				continue
			}
			c.log.Debugw("sweep found resource handle", "handle", src)
			out <- &Handle{ID: src, Element: el, Timestamp: time.Now()}
			return
		}
	}
}
