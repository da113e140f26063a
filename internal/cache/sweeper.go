package cache

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically evicts expired entries on its own goroutine.
type Sweeper struct {
	cron   *cron.Cron
	caches *Caches
}

func NewSweeper(caches *Caches, spec string) (*Sweeper, error) {
	c := cron.New()
	s := &Sweeper{cron: c, caches: caches}
	if _, err := c.AddFunc(spec, s.sweepAll); err != nil {
		return nil, fmt.Errorf("invalid cache sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) sweepAll() {
	for _, c := range s.caches.All() {
		if n := c.Sweep(); n > 0 {
			log.Debug().Str("cache", c.Name()).Int("removed", n).Msg("Cache sweep")
		}
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
	log.Info().Msg("Cache sweeper started")
}

// Stop waits for a running sweep to finish or for ctx to end.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
