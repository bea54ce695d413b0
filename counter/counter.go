// Package counter keeps the approved enrollment count of a hackathon in line
// with its enrollments.
//
// The count is maintained in two steps: the enrollment write, then a merge of
// the hackathon counter. The two writes are not atomic, a failure in between
// leaves the counter off by one. Sweeper recomputes counters from the
// enrollments themselves and is the repair path for that drift. Both write
// the counter with a compare-and-set where the table supports it, so neither
// overwrites a counter that moved after it was read.
package counter

import (
	"context"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// EnrollmentColumn is the only hackathon column the reconciler writes.
const EnrollmentColumn = "enrollment"

// Delta returns the change in approved count when an enrollment moves from
// old to new: +1 into approved, -1 out of approved, 0 otherwise.
func Delta(old, new model.EnrollmentStatus) int {
	wasApproved := old == model.EnrollmentStatusApproved
	isApproved := new == model.EnrollmentStatusApproved
	switch {
	case !wasApproved && isApproved:
		return 1
	case wasApproved && !isApproved:
		return -1
	default:
		return 0
	}
}

// maxWriteAttempts bounds the compare-and-set attempts of one counter write.
const maxWriteAttempts = 5

// Reconciler applies counter deltas to hackathon records.
type Reconciler struct {
	hackathons storage.Table[model.Hackathon]
	repair     *Sweeper
	logger     *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithRepair recounts the hackathon with s when its counter changed between
// the read and the write of Apply. The enrollment write has landed by then,
// so the recount already includes the change being applied.
func WithRepair(s *Sweeper) ReconcilerOption {
	return func(r *Reconciler) {
		r.repair = s
	}
}

// NewReconciler creates a reconciler writing through the given table.
func NewReconciler(hackathons storage.Table[model.Hackathon], logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{
		hackathons: hackathons,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies Delta(old, new) to the hackathon counter.
func (r *Reconciler) Reconcile(ctx context.Context, hackathonName string, old, new model.EnrollmentStatus) error {
	return r.Apply(ctx, hackathonName, Delta(old, new))
}

// Apply loads the hackathon, adds delta to its counter and merges only the
// counter column back. A zero delta performs no store call.
//
// On tables implementing storage.ConditionalMerger the merge only lands while
// the stored counter still holds the value that was read. When it moved in
// between, Apply recounts through the repair sweeper if one is configured,
// and otherwise reads the counter again and retries.
func (r *Reconciler) Apply(ctx context.Context, hackathonName string, delta int) error {
	if delta == 0 {
		return nil
	}

	name := model.NormalizeHackathonName(hackathonName)
	for attempt := 1; ; attempt++ {
		err := r.apply(ctx, name, delta)
		if !goerrors.Is(err, storage.ErrConditionFailed) {
			return err
		}

		if r.repair != nil {
			r.logger.Info("enrollment counter changed concurrently, recounting",
				"hackathon", name,
				"delta", delta,
			)
			_, err := r.repair.Sweep(ctx, name)
			return err
		}
		if attempt == maxWriteAttempts {
			r.logger.Error("enrollment counter update kept conflicting, counter may drift",
				"hackathon", name,
				"delta", delta,
			)
			return ErrCounterContended
		}
		r.logger.Debug("enrollment counter changed concurrently, retrying",
			"hackathon", name,
			"attempt", attempt,
		)
	}
}

func (r *Reconciler) apply(ctx context.Context, name string, delta int) error {
	hackathon, err := r.hackathons.Retrieve(ctx, name, model.HackathonRowKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrHackathonNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryExternal, "counter: load hackathon")
	}

	expected := hackathon.Enrollment
	hackathon.Enrollment += delta
	if hackathon.Enrollment < 0 {
		r.logger.Warn("enrollment counter below zero, a sweep will repair it",
			"hackathon", name,
			"counter", hackathon.Enrollment,
		)
	}

	if err := writeCounter(ctx, r.hackathons, hackathon, expected); err != nil {
		if goerrors.Is(err, storage.ErrConditionFailed) {
			return err
		}
		r.logger.Error("enrollment counter update failed, counter may drift",
			"hackathon", name,
			"delta", delta,
			"error", err,
		)
		return goerrors.Wrap(err, goerrors.CategoryExternal, "counter: merge hackathon")
	}

	r.logger.Debug("enrollment counter updated",
		"hackathon", name,
		"delta", delta,
		"counter", hackathon.Enrollment,
	)
	return nil
}

// writeCounter merges the counter column of h. Tables supporting conditional
// merges only accept it while the stored counter still equals expected.
func writeCounter(ctx context.Context, table storage.Table[model.Hackathon], h model.Hackathon, expected int) error {
	if cm, ok := table.(storage.ConditionalMerger[model.Hackathon]); ok {
		return cm.MergeIf(ctx, h, []storage.Condition{{Field: "Enrollment", Value: expected}}, EnrollmentColumn)
	}
	return table.Merge(ctx, h, EnrollmentColumn)
}
