// Package work manages the artifacts teams submit to a hackathon.
package work

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// CreateRequest holds the fields of a new submission. Type defaults to website.
type CreateRequest struct {
	TeamID        string
	HackathonName string
	Title         string
	Description   string
	URL           string
	Type          *model.WorkType
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TeamID, validation.Required),
		validation.Field(&r.HackathonName, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.Description, validation.Length(0, 4096)),
		validation.Field(&r.URL, is.URL),
		validation.Field(&r.Type, validation.By(validType)),
	)
}

// UpdateRequest is a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	Title       *string
	Description *string
	URL         *string
	Type        *model.WorkType
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 256)),
		validation.Field(&r.Description, validation.Length(0, 4096)),
		validation.Field(&r.URL, is.URL),
		validation.Field(&r.Type, validation.By(validType)),
	)
}

func validType(value any) error {
	t, _ := value.(*model.WorkType)
	if t == nil {
		return nil
	}
	if t.String() == "unknown" {
		return validation.NewError("validation_work_type", "unknown work type")
	}
	return nil
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

// WithIDGenerator replaces the uuid generator used for new submissions.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// Service manages team works. Lists are paged in memory over the cached team
// partition, a team only ever holds a handful of submissions.
type Service struct {
	table   storage.Table[model.TeamWork]
	manager *lifecycle.Manager[model.TeamWork]
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService creates a work service over works, normally a
// repositorycache.CachedTable.
func NewService(works storage.Table[model.TeamWork], opts ...Option) *Service {
	s := &Service{
		table:  works,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.manager = lifecycle.NewManager(works, lifecycle.NewOffsetPager(works), s.logger)
	return s
}

// Create stores a new submission with a generated id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.TeamWork, error) {
	req.TeamID = strings.TrimSpace(req.TeamID)
	req.HackathonName = model.NormalizeHackathonName(req.HackathonName)
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "work: invalid create request")
	}

	now := s.now().UTC()
	w := model.TeamWork{
		TeamID:        req.TeamID,
		ID:            s.newID(),
		HackathonName: req.HackathonName,
		Title:         req.Title,
		Description:   req.Description,
		URL:           req.URL,
		Type:          model.WorkTypeWebsite,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Type != nil {
		w.Type = *req.Type
	}

	if err := s.table.Insert(ctx, w); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "work: insert")
	}
	s.logger.Info("team work created", "teamId", w.TeamID, "id", w.ID, "type", w.Type.String())
	return &w, nil
}

// Update applies the non-nil fields of req to existing and merges them. A nil
// existing work is a no-op.
func (s *Service) Update(ctx context.Context, existing *model.TeamWork, req UpdateRequest) (*model.TeamWork, error) {
	if existing == nil {
		return nil, nil
	}
	if err := req.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "work: invalid update request")
	}

	updated := *existing
	columns := []string{"updated_at"}
	if req.Title != nil {
		updated.Title = *req.Title
		columns = append(columns, "title")
	}
	if req.Description != nil {
		updated.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.URL != nil {
		updated.URL = *req.URL
		columns = append(columns, "url")
	}
	if req.Type != nil {
		updated.Type = *req.Type
		columns = append(columns, "type")
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.table.Merge(ctx, updated, columns...); err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "work: merge")
	}
	return &updated, nil
}

// Get returns one submission, nil when absent.
func (s *Service) Get(ctx context.Context, teamID, id string) (*model.TeamWork, error) {
	return s.manager.Get(ctx, teamID, id)
}

// Delete removes one submission.
func (s *Service) Delete(ctx context.Context, teamID, id string) error {
	return s.manager.Delete(ctx, teamID, id)
}

// ListPaginated pages the team's submissions, newest first.
func (s *Service) ListPaginated(ctx context.Context, teamID string, opts lifecycle.ListOptions) (lifecycle.Page[model.TeamWork], error) {
	return s.manager.List(ctx, strings.TrimSpace(teamID), opts)
}
