// Package admin manages the users allowed to administer a hackathon.
package admin

import (
	"context"
	"log/slog"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// ErrInvalidAdmin is returned when a hackathon name or user id is blank.
var ErrInvalidAdmin = goerrors.New("admin: hackathon name and user id are required", goerrors.CategoryBadInput)

// Service manages hackathon admins. Admin sets are small, lists are paged
// in memory over the cached partition.
type Service struct {
	table   storage.Table[model.HackathonAdmin]
	manager *lifecycle.Manager[model.HackathonAdmin]
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an admin service over admins, normally a
// repositorycache.CachedTable. A nil now uses time.Now.
func NewService(admins storage.Table[model.HackathonAdmin], logger *slog.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		table:   admins,
		manager: lifecycle.NewManager(admins, lifecycle.NewOffsetPager(admins), logger),
		logger:  logger,
		now:     now,
	}
}

// Create grants userID admin rights on hackathonName. Granting an existing
// admin again returns the stored record.
func (s *Service) Create(ctx context.Context, hackathonName, userID string) (*model.HackathonAdmin, error) {
	name := model.NormalizeHackathonName(hackathonName)
	userID = strings.TrimSpace(userID)
	if name == "" || userID == "" {
		return nil, ErrInvalidAdmin
	}

	now := s.now().UTC()
	a := model.HackathonAdmin{
		HackathonName: name,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.table.Insert(ctx, a); err != nil {
		if goerrors.Is(err, storage.ErrAlreadyExists) || goerrors.HasCategory(err, goerrors.CategoryConflict) {
			return s.Get(ctx, name, userID)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "admin: insert")
	}
	s.logger.Info("hackathon admin added", "hackathon", name, "userId", userID)
	return &a, nil
}

// Get returns the admin record, nil when absent.
func (s *Service) Get(ctx context.Context, hackathonName, userID string) (*model.HackathonAdmin, error) {
	return s.manager.Get(ctx, model.NormalizeHackathonName(hackathonName), strings.TrimSpace(userID))
}

// IsAdmin reports whether userID administers hackathonName.
func (s *Service) IsAdmin(ctx context.Context, hackathonName, userID string) (bool, error) {
	a, err := s.Get(ctx, hackathonName, userID)
	return a != nil, err
}

// Delete revokes admin rights.
func (s *Service) Delete(ctx context.Context, hackathonName, userID string) error {
	return s.manager.Delete(ctx, model.NormalizeHackathonName(hackathonName), strings.TrimSpace(userID))
}

// ListPaginated pages a hackathon's admins, most recently added first.
func (s *Service) ListPaginated(ctx context.Context, hackathonName string, opts lifecycle.ListOptions) (lifecycle.Page[model.HackathonAdmin], error) {
	return s.manager.List(ctx, model.NormalizeHackathonName(hackathonName), opts)
}
