// Package hackathon manages hackathon records, the parents of enrollments.
package hackathon

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

var (
	// ErrExists is returned by Create when the name is taken.
	ErrExists = goerrors.New("hackathon: already exists", goerrors.CategoryConflict)
)

// CreateRequest holds the fields accepted when creating a hackathon.
type CreateRequest struct {
	Name                string
	DisplayName         string
	AutoApprove         bool
	MaxEnrollment       int
	EnrollmentStartedAt time.Time
	EnrollmentEndedAt   time.Time
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.DisplayName, validation.Length(0, 256)),
		validation.Field(&r.MaxEnrollment, validation.Min(0)),
		validation.Field(&r.EnrollmentEndedAt, validation.By(func(any) error {
			if r.EnrollmentStartedAt.IsZero() || r.EnrollmentEndedAt.IsZero() {
				return nil
			}
			if !r.EnrollmentEndedAt.After(r.EnrollmentStartedAt) {
				return validation.NewError("validation_enrollment_window", "must be after the enrollment start")
			}
			return nil
		})),
	)
}

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

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service creates and reads hackathons. The enrollment counter is never
// written here, see the counter package.
type Service struct {
	table  storage.Table[model.Hackathon]
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a hackathon service over table.
func NewService(table storage.Table[model.Hackathon], opts ...Option) *Service {
	s := &Service{
		table:  table,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates req and inserts a new hackathon with a zero counter.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Hackathon, error) {
	req.Name = model.NormalizeHackathonName(req.Name)
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "hackathon: invalid create request")
	}

	now := s.now().UTC()
	h := model.NewHackathon(req.Name)
	h.DisplayName = req.DisplayName
	h.AutoApprove = req.AutoApprove
	h.MaxEnrollment = req.MaxEnrollment
	h.EnrollmentStartedAt = req.EnrollmentStartedAt
	h.EnrollmentEndedAt = req.EnrollmentEndedAt
	h.CreatedAt = now
	h.UpdatedAt = now

	if err := s.table.Insert(ctx, h); err != nil {
		if goerrors.Is(err, storage.ErrAlreadyExists) || goerrors.HasCategory(err, goerrors.CategoryConflict) {
			return nil, ErrExists
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "hackathon: insert")
	}

	s.logger.Info("hackathon created", "hackathon", h.Name, "autoApprove", h.AutoApprove)
	return &h, nil
}

// Get returns the hackathon or nil when it does not exist. Names are case
// insensitive.
func (s *Service) Get(ctx context.Context, name string) (*model.Hackathon, error) {
	name = model.NormalizeHackathonName(name)
	if name == "" {
		return nil, nil
	}
	h, err := s.table.Retrieve(ctx, name, model.HackathonRowKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "hackathon: retrieve")
	}
	return &h, nil
}
