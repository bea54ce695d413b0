package counter

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// DefaultSweepWorkers bounds concurrent hackathon sweeps.
const DefaultSweepWorkers = 4

// SweepResult reports the counter of one hackathon before and after a sweep.
type SweepResult struct {
	Hackathon string `json:"hackathon"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
}

// Changed reports whether the sweep rewrote the counter.
func (r SweepResult) Changed() bool {
	return r.Before != r.After
}

// Sweeper recomputes hackathon counters from the approved enrollments.
type Sweeper struct {
	hackathons  storage.Table[model.Hackathon]
	enrollments storage.Table[model.Enrollment]
	workers     int
	logger      *slog.Logger
}

// NewSweeper creates a sweeper. enrollments should be the uncached table so
// counts come from the store rather than a cached list.
func NewSweeper(hackathons storage.Table[model.Hackathon], enrollments storage.Table[model.Enrollment], workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = DefaultSweepWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		hackathons:  hackathons,
		enrollments: enrollments,
		workers:     workers,
		logger:      logger,
	}
}

// Sweep recounts the approved enrollments of one hackathon and merges the
// counter when it drifted. When the counter moves between the read and the
// write the hackathon is recounted.
func (s *Sweeper) Sweep(ctx context.Context, hackathonName string) (SweepResult, error) {
	name := model.NormalizeHackathonName(hackathonName)
	for attempt := 1; ; attempt++ {
		res, err := s.sweep(ctx, name)
		if !goerrors.Is(err, storage.ErrConditionFailed) {
			return res, err
		}
		if attempt == maxWriteAttempts {
			return SweepResult{}, ErrCounterContended
		}
		s.logger.Debug("enrollment counter changed during sweep, recounting",
			"hackathon", name,
			"attempt", attempt,
		)
	}
}

func (s *Sweeper) sweep(ctx context.Context, name string) (SweepResult, error) {
	hackathon, err := s.hackathons.Retrieve(ctx, name, model.HackathonRowKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return SweepResult{}, ErrHackathonNotFound
		}
		return SweepResult{}, goerrors.Wrap(err, goerrors.CategoryExternal, "counter: load hackathon")
	}

	enrollments, err := s.enrollments.ListPartition(ctx, name)
	if err != nil {
		return SweepResult{}, goerrors.Wrap(err, goerrors.CategoryExternal, "counter: list enrollments")
	}

	approved := 0
	for _, e := range enrollments {
		if e.Approved() {
			approved++
		}
	}

	result := SweepResult{Hackathon: name, Before: hackathon.Enrollment, After: approved}
	if !result.Changed() {
		return result, nil
	}

	hackathon.Enrollment = approved
	if err := writeCounter(ctx, s.hackathons, hackathon, result.Before); err != nil {
		if goerrors.Is(err, storage.ErrConditionFailed) {
			return SweepResult{}, err
		}
		return SweepResult{}, goerrors.Wrap(err, goerrors.CategoryExternal, "counter: merge hackathon")
	}

	s.logger.Info("enrollment counter repaired",
		"hackathon", name,
		"before", result.Before,
		"after", result.After,
	)
	return result, nil
}

// SweepAll sweeps every named hackathon. Names are spread over the workers
// by hash so one hackathon is never swept twice concurrently. The first
// error cancels the remaining sweeps. Results are sorted by hackathon.
func (s *Sweeper) SweepAll(ctx context.Context, hackathonNames []string) ([]SweepResult, error) {
	buckets := make([][]string, s.workers)
	seen := make(map[string]bool, len(hackathonNames))
	for _, n := range hackathonNames {
		name := model.NormalizeHackathonName(n)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		idx := xxhash.Sum64String(name) % uint64(s.workers)
		buckets[idx] = append(buckets[idx], name)
	}

	var (
		mu      sync.Mutex
		results = make([]SweepResult, 0, len(seen))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		g.Go(func() error {
			for _, name := range bucket {
				res, err := s.Sweep(ctx, name)
				if err != nil {
					s.logger.Error("counter sweep failed",
						"hackathon", name,
						"error", err,
					)
					return err
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Hackathon < results[j].Hackathon })
	return results, nil
}
