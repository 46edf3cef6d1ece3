// ABOUTME: Combined pipeline dashboard
// ABOUTME: Builds every section concurrently and degrades per section when one fails
package insights

import (
	"context"
	"sync"
	"time"

	"github.com/harperreed/dealpulse/scoring"
	"golang.org/x/sync/errgroup"
)

// DashboardSectionLimit caps list sections.
const DashboardSectionLimit = 10

type Dashboard struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	TopDeals    []scoring.ScoredDeal      `json:"top_deals"`
	FollowUps   []FollowUpItem            `json:"follow_ups"`
	Hygiene     *HygieneResult            `json:"hygiene,omitempty"`
	Velocity    *scoring.PipelineVelocity `json:"velocity,omitempty"`
	Churn       []scoring.ChurnRisk       `json:"churn"`
	// Errors holds one message per section that could not be built.
	Errors map[string]string `json:"errors,omitempty"`
}

// Dashboard builds every section. A failing section is reported in Errors
// and the rest still render; only cancellation fails the whole call.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{GeneratedAt: s.clock.Now()}

	var mu sync.Mutex
	fail := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if d.Errors == nil {
			d.Errors = make(map[string]string)
		}
		d.Errors[section] = err.Error()
		s.logger.Warn("dashboard section failed", "section", section, "err", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	section := func(name string, build func(context.Context) error) {
		g.Go(func() error {
			if err := build(gctx); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				fail(name, err)
			}
			return nil
		})
	}

	section("top_deals", func(ctx context.Context) error {
		deals, err := s.RankDeals(ctx, DashboardSectionLimit)
		d.TopDeals = deals
		return err
	})
	section("follow_ups", func(ctx context.Context) error {
		items, err := s.FollowUpQueue(ctx, DashboardSectionLimit)
		d.FollowUps = items
		return err
	})
	section("hygiene", func(ctx context.Context) error {
		h, err := s.Hygiene(ctx)
		d.Hygiene = h
		return err
	})
	section("velocity", func(ctx context.Context) error {
		v, err := s.PipelineVelocity(ctx)
		d.Velocity = v
		return err
	})
	section("churn", func(ctx context.Context) error {
		risks, err := s.ChurnWatchlist(ctx, DashboardSectionLimit)
		d.Churn = risks
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
