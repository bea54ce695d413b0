package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

// Epoch is the default start time of test clocks.
var Epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// TempFile writes content to a file inside a test scoped directory and
// returns its path. The file is removed with the directory.
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

// Clock is a manually advanced clock. The zero value is not usable, use
// NewClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Tick returns a time source that advances the clock by step on every call,
// so records created in a loop get distinct, increasing timestamps.
func (c *Clock) Tick(step time.Duration) func() time.Time {
	return func() time.Time {
		return c.Advance(step)
	}
}

// SeedHackathon inserts h, normalizing its keys, and returns the stored record.
func SeedHackathon(t *testing.T, table storage.Table[model.Hackathon], h model.Hackathon) model.Hackathon {
	t.Helper()

	h.Name = model.NormalizeHackathonName(h.Name)
	h.RowKey = model.HackathonRowKey
	if h.CreatedAt.IsZero() {
		h.CreatedAt = Epoch
		h.UpdatedAt = Epoch
	}
	if err := table.Insert(context.Background(), h); err != nil {
		t.Fatalf("failed to seed hackathon %s: %v", h.Name, err)
	}
	return h
}

// SeedEnrollments inserts n enrollments named user-00, user-01... with the
// given status. Creation times are one minute apart starting at Epoch.
func SeedEnrollments(t *testing.T, table storage.Table[model.Enrollment], hackathon string, n int, status model.EnrollmentStatus) []model.Enrollment {
	t.Helper()

	out := make([]model.Enrollment, 0, n)
	for i := 0; i < n; i++ {
		created := Epoch.Add(time.Duration(i) * time.Minute)
		e := model.Enrollment{
			HackathonName: model.NormalizeHackathonName(hackathon),
			UserID:        fmt.Sprintf("user-%02d", i),
			Status:        status,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
		if err := table.Insert(context.Background(), e); err != nil {
			t.Fatalf("failed to seed enrollment %s: %v", e.UserID, err)
		}
		out = append(out, e)
	}
	return out
}

// LoadHackathons reads a JSON array of hackathons from a fixture file.
func LoadHackathons(t *testing.T, path string) []model.Hackathon {
	t.Helper()

	var out []model.Hackathon
	LoadFixtureJSON(t, path, &out)
	return out
}
