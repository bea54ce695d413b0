package counter

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

func seedEnrollments(t *testing.T, table *storage.MemTable[model.Enrollment], hackathon string, statuses ...model.EnrollmentStatus) {
	t.Helper()
	for i, status := range statuses {
		require.NoError(t, table.Insert(context.Background(), model.Enrollment{
			HackathonName: hackathon,
			UserID:        fmt.Sprintf("user-%d", i),
			Status:        status,
		}))
	}
}

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	hackathons := seedHackathon(t, "hack", 7)
	enrollments := storage.NewMemTable[model.Enrollment]()
	seedEnrollments(t, enrollments, "hack",
		model.EnrollmentStatusApproved,
		model.EnrollmentStatusApproved,
		model.EnrollmentStatusPendingApproval,
		model.EnrollmentStatusRejected,
	)

	s := NewSweeper(hackathons, enrollments, 0, nil)

	res, err := s.Sweep(ctx, "hack")
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Hackathon: "hack", Before: 7, After: 2}, res)
	assert.True(t, res.Changed())

	got, err := hackathons.MemTable.Retrieve(ctx, "hack", model.HackathonRowKey)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Enrollment)

	// second sweep finds nothing to repair
	res, err = s.Sweep(ctx, "hack")
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Len(t, hackathons.merges, 1)
}

func TestSweeper_SweepMissingHackathon(t *testing.T) {
	s := NewSweeper(storage.NewMemTable[model.Hackathon](), storage.NewMemTable[model.Enrollment](), 1, nil)

	_, err := s.Sweep(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrHackathonNotFound)
}

func TestSweeper_SweepAll(t *testing.T) {
	ctx := context.Background()
	hackathons := storage.NewMemTable[model.Hackathon]()
	enrollments := storage.NewMemTable[model.Enrollment]()

	names := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i, name := range names {
		h := model.NewHackathon(name)
		h.Enrollment = 100
		require.NoError(t, hackathons.Insert(ctx, h))

		statuses := make([]model.EnrollmentStatus, i)
		for j := range statuses {
			statuses[j] = model.EnrollmentStatusApproved
		}
		seedEnrollments(t, enrollments, name, statuses...)
	}

	s := NewSweeper(hackathons, enrollments, 3, nil)
	results, err := s.SweepAll(ctx, append([]string{"ALPHA", "", "alpha"}, names...))
	require.NoError(t, err)
	require.Len(t, results, len(names))

	for i, res := range results {
		assert.Equal(t, names[i], res.Hackathon)
		assert.Equal(t, i, res.After)

		got, err := hackathons.Retrieve(ctx, names[i], model.HackathonRowKey)
		require.NoError(t, err)
		assert.Equal(t, i, got.Enrollment)
	}
}

func TestSweeper_SweepAllStopsOnError(t *testing.T) {
	hackathons := storage.NewMemTable[model.Hackathon]()
	s := NewSweeper(hackathons, storage.NewMemTable[model.Enrollment](), 2, nil)

	_, err := s.SweepAll(context.Background(), []string{"ghost"})
	assert.ErrorIs(t, err, ErrHackathonNotFound)
}

func TestSweeper_RecountsWhenCounterMoves(t *testing.T) {
	ctx := context.Background()
	base := seedHackathon(t, "hack", 9).MemTable
	enrollments := storage.NewMemTable[model.Enrollment]()
	seedEnrollments(t, enrollments, "hack", model.EnrollmentStatusApproved, model.EnrollmentStatusApproved)

	table := &interleavedTable{MemTable: base}
	table.between = func() {
		table.between = nil
		// an approval lands after the sweep read the counter
		require.NoError(t, enrollments.Insert(ctx, model.Enrollment{
			HackathonName: "hack",
			UserID:        "late",
			Status:        model.EnrollmentStatusApproved,
		}))
		require.NoError(t, NewReconciler(base, nil).Apply(ctx, "hack", 1))
	}

	s := NewSweeper(table, enrollments, 1, nil)
	res, err := s.Sweep(ctx, "hack")
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Hackathon: "hack", Before: 10, After: 3}, res)
	assert.Equal(t, 3, counterOf(t, base, "hack"))
}
