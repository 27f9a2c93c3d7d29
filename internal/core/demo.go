package core

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"labtrack/pkg/domain"
)

// DefaultDemoMonths is the history length generated by SeedDemoData.
const DefaultDemoMonths = 12

const demoSeed = 0x1ab7_2ac4

// SeedDemoData records one reading per month for every parameter, going back
// months from now. Values scatter around the middle of each normal range.
// All readings are written in a single transaction; output is deterministic
// for a given clock.
func (s *Service) SeedDemoData(ctx context.Context, months int) (count int, err error) {
	defer s.observe(ctx, "seed_demo", time.Now(), &err)
	if months <= 0 {
		months = DefaultDemoMonths
	}
	rng := rand.New(rand.NewPCG(demoSeed, uint64(months)))
	now := s.clock.Now()
	_, err = s.runInTransaction(ctx, func(tx *transaction) error {
		for i := months - 1; i >= 0; i-- {
			ts := now.AddDate(0, -i, 0)
			for _, p := range tx.registry.List() {
				m, insErr := tx.store.Insert(p.ID, demoValue(rng, p.NormalRange), ts)
				if insErr != nil {
					return insErr
				}
				tx.record(domain.EntityMeasurement, m)
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("demo data seeded", "months", months, "readings", count)
	return count, nil
}

func demoValue(rng *rand.Rand, r domain.NormalRange) float64 {
	span := r.Max - r.Min
	base := r.Min + span/2
	v := base + (rng.Float64()-0.5)*2*span*0.3
	v = math.Round(v*10) / 10
	if v <= 0 {
		v = 0.1
	}
	return v
}
