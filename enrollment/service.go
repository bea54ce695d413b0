// Package enrollment manages user enrollments to hackathons and keeps the
// hackathon approved counter in step with enrollment status changes.
//
// Enrollments are partitioned by hackathon name and keyed by user id. The
// enrollments table handed to NewService is expected to be a
// repositorycache.CachedTable so that list reads are cached and every write
// invalidates the hackathon's list. Paged listing goes straight to the store
// through lifecycle.StorePager since enrollment sets are large and usually
// filtered by status.
package enrollment

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/counter"
	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// ScanLimit is the largest MaxEnrollment for which IsUserEnrolled scans the
// cached partition list instead of doing a point read.
const ScanLimit = 1000

const (
	columnStatus     = "status"
	columnExtensions = "extensions"
	columnUpdatedAt  = "updated_at"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used for timestamps and the enrollment window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPager replaces the list strategy.
func WithPager(pager lifecycle.Pager[model.Enrollment]) Option {
	return func(s *Service) {
		if pager != nil {
			s.pager = pager
		}
	}
}

// Service is the enrollment lifecycle manager.
type Service struct {
	table      storage.Table[model.Enrollment]
	reconciler *counter.Reconciler
	pager      lifecycle.Pager[model.Enrollment]
	manager    *lifecycle.Manager[model.Enrollment]
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates an enrollment service writing through enrollments and
// reconciling counters with reconciler.
func NewService(enrollments storage.Table[model.Enrollment], reconciler *counter.Reconciler, opts ...Option) *Service {
	s := &Service{
		table:      enrollments,
		reconciler: reconciler,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pager == nil {
		s.pager = lifecycle.NewStorePager(enrollments, storage.OrderAscending)
	}
	s.manager = lifecycle.NewManager(enrollments, s.pager, s.logger)
	return s
}

// Create enrolls userID to hackathon. The initial status is approved when
// the hackathon auto approves, pending approval otherwise. An approved
// enrollment increments the hackathon counter.
func (s *Service) Create(ctx context.Context, hackathon model.Hackathon, userID string, extensions []model.Extension) (*model.Enrollment, error) {
	name := model.NormalizeHackathonName(hackathon.Name)
	userID = strings.TrimSpace(userID)

	err := validation.Errors{
		"hackathon":  validation.Validate(name, validation.Required),
		"userId":     validation.Validate(userID, validation.Required),
		"extensions": validateExtensions(extensions),
	}.Filter()
	if err != nil {
		return nil, goerrors.FromOzzoValidation(err, "enrollment: invalid create request")
	}

	now := s.now().UTC()
	switch {
	case hackathon.EnrollmentNotStarted(now):
		return nil, ErrEnrollmentNotStarted
	case hackathon.EnrollmentEnded(now):
		return nil, ErrEnrollmentEnded
	}

	status := model.EnrollmentStatusPendingApproval
	if hackathon.AutoApprove {
		status = model.EnrollmentStatusApproved
	}

	e := model.Enrollment{
		HackathonName: name,
		UserID:        userID,
		Status:        status,
		Extensions:    slices.Clone(extensions),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.table.Insert(ctx, e); err != nil {
		if goerrors.Is(err, storage.ErrAlreadyExists) || goerrors.HasCategory(err, goerrors.CategoryConflict) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment: insert")
	}

	if err := s.reconciler.Reconcile(ctx, name, model.EnrollmentStatusNone, status); err != nil {
		s.logCounterDrift(ctx, name, userID, err)
		return &e, err
	}

	s.logger.Info("enrollment created",
		"hackathon", name,
		"userId", userID,
		"status", status.String(),
	)
	return &e, nil
}

// Update applies the non-nil fields of req to existing and merges them. A nil
// existing enrollment is a no-op.
func (s *Service) Update(ctx context.Context, existing *model.Enrollment, req UpdateRequest) (*model.Enrollment, error) {
	if existing == nil {
		return nil, nil
	}
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "enrollment: invalid update request")
	}

	updated := *existing
	columns := []string{columnUpdatedAt}
	if req.Extensions != nil {
		updated.Extensions = *req.Extensions
		columns = append(columns, columnExtensions)
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.table.Merge(ctx, updated, columns...); err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment: merge")
	}
	return &updated, nil
}

// TransitionStatus moves e to status and applies the counter delta to the
// hackathon. Nothing is written when e is nil or already in status. On
// success e is updated in place.
func (s *Service) TransitionStatus(ctx context.Context, hackathonName string, e *model.Enrollment, status model.EnrollmentStatus) error {
	if e == nil || e.Status == status {
		return nil
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	old := e.Status
	updated := *e
	updated.Status = status
	updated.UpdatedAt = s.now().UTC()

	if err := s.table.Merge(ctx, updated, columnStatus, columnUpdatedAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "enrollment: merge status")
	}
	*e = updated

	name := hackathonName
	if strings.TrimSpace(name) == "" {
		name = e.HackathonName
	}
	if err := s.reconciler.Reconcile(ctx, name, old, status); err != nil {
		s.logCounterDrift(ctx, name, e.UserID, err)
		return err
	}

	s.logger.Info("enrollment status changed",
		"hackathon", model.NormalizeHackathonName(name),
		"userId", e.UserID,
		"from", old.String(),
		"to", status.String(),
	)
	return nil
}

// Get reads one enrollment from the store. It returns nil when the
// enrollment does not exist.
func (s *Service) Get(ctx context.Context, hackathonName, userID string) (*model.Enrollment, error) {
	return s.manager.Get(ctx, model.NormalizeHackathonName(hackathonName), strings.TrimSpace(userID))
}

// ListPaginated returns one page of a hackathon's enrollments, optionally
// restricted to one status.
func (s *Service) ListPaginated(ctx context.Context, hackathonName string, opts ListOptions) (lifecycle.Page[model.Enrollment], error) {
	lo := lifecycle.ListOptions{Token: opts.Token, PageSize: opts.PageSize}
	if opts.Status != nil {
		lo.Conditions = []storage.Condition{{Field: "Status", Value: int(*opts.Status)}}
	}
	return s.manager.List(ctx, model.NormalizeHackathonName(hackathonName), lo)
}

// ListByHackathon returns every enrollment of a hackathon through the list cache.
func (s *Service) ListByHackathon(ctx context.Context, hackathonName string) ([]model.Enrollment, error) {
	return s.manager.ListAll(ctx, model.NormalizeHackathonName(hackathonName))
}

// Delete removes an enrollment. The hackathon counter is not touched, move
// an approved enrollment out of approved first.
func (s *Service) Delete(ctx context.Context, hackathonName, userID string) error {
	return s.manager.Delete(ctx, model.NormalizeHackathonName(hackathonName), userID)
}

// IsUserEnrolled reports whether userID holds an approved enrollment. Small
// hackathons are answered from the cached list, others with a point read.
func (s *Service) IsUserEnrolled(ctx context.Context, hackathon model.Hackathon, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	if hackathon.MaxEnrollment > 0 && hackathon.MaxEnrollment <= ScanLimit {
		all, err := s.ListByHackathon(ctx, hackathon.Name)
		if err != nil {
			return false, err
		}
		for _, e := range all {
			if e.UserID == userID {
				return e.Approved(), nil
			}
		}
		return false, nil
	}

	e, err := s.Get(ctx, hackathon.Name, userID)
	if err != nil || e == nil {
		return false, err
	}
	return e.Approved(), nil
}

func (s *Service) logCounterDrift(ctx context.Context, hackathon, userID string, err error) {
	attrs := []slog.Attr{
		slog.String("hackathon", hackathon),
		slog.String("userId", userID),
	}
	attrs = append(attrs, goerrors.ToSlogAttributes(err)...)
	s.logger.LogAttrs(ctx, slog.LevelError, "enrollment written but counter not updated", attrs...)
}
