package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/storage"
)

func enrollment(hackathon, user string, status model.EnrollmentStatus) model.Enrollment {
	return model.Enrollment{HackathonName: hackathon, UserID: user, Status: status}
}

func TestFilterString(t *testing.T) {
	tests := []struct {
		name   string
		filter storage.Filter
		want   string
	}{
		{
			name:   "partition only",
			filter: storage.Filter{PartitionKey: "foo"},
			want:   "PartitionKey eq 'foo'",
		},
		{
			name:   "with status",
			filter: storage.Filter{PartitionKey: "foo"}.Where("Status", model.EnrollmentStatusApproved),
			want:   "(PartitionKey eq 'foo') and (Status eq 2)",
		},
		{
			name:   "quotes escaped",
			filter: storage.Filter{PartitionKey: "o'hack"}.Where("AutoApprove", true),
			want:   "(PartitionKey eq 'o''hack') and (AutoApprove eq true)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.String())
		})
	}
}

func TestFilterWhereDoesNotAlias(t *testing.T) {
	base := storage.Filter{PartitionKey: "p"}.Where("Status", 1)
	a := base.Where("Title", "a")
	b := base.Where("Title", "b")

	require.Len(t, a.Conditions, 2)
	require.Len(t, b.Conditions, 2)
	assert.Equal(t, "a", a.Conditions[1].Value)
	assert.Equal(t, "b", b.Conditions[1].Value)
	assert.Len(t, base.Conditions, 1)
}

func TestColumnName(t *testing.T) {
	tests := map[string]string{
		"Status":              "status",
		"HackathonName":       "hackathon_name",
		"UserID":              "user_id",
		"URL":                 "url",
		"EnrollmentStartedAt": "enrollment_started_at",
	}
	for in, want := range tests {
		assert.Equal(t, want, storage.ColumnName(in), in)
	}
}

func TestFilterMatches(t *testing.T) {
	rec := enrollment("hack", "u1", model.EnrollmentStatusApproved)

	assert.True(t, storage.Filter{}.Matches(rec))
	assert.True(t, storage.Filter{}.Where("Status", 2).Matches(rec), "plain ints match named ints")
	assert.True(t, storage.Filter{}.Where("Status", model.EnrollmentStatusApproved).Matches(rec))
	assert.False(t, storage.Filter{}.Where("Status", model.EnrollmentStatusRejected).Matches(rec))
	assert.False(t, storage.Filter{}.Where("Missing", 1).Matches(rec))
}

func TestMergeColumns(t *testing.T) {
	stored := model.Hackathon{Name: "hack", RowKey: model.HackathonRowKey, DisplayName: "Hack", Enrollment: 3, MaxEnrollment: 10}
	patch := model.Hackathon{Name: "other", Enrollment: 4, DisplayName: "Ignored"}

	t.Run("listed columns only", func(t *testing.T) {
		got := storage.MergeColumns(stored, patch, "enrollment")
		assert.Equal(t, 4, got.Enrollment)
		assert.Equal(t, "Hack", got.DisplayName)
		assert.Equal(t, 10, got.MaxEnrollment)
		assert.Equal(t, "hack", got.Name)
	})

	t.Run("populated columns", func(t *testing.T) {
		got := storage.MergeColumns(stored, patch)
		assert.Equal(t, 4, got.Enrollment)
		assert.Equal(t, "Ignored", got.DisplayName)
		assert.Equal(t, 10, got.MaxEnrollment, "zero fields are not copied")
		assert.Equal(t, "hack", got.Name, "keys are never copied")
	})

	assert.Equal(t, 3, stored.Enrollment, "input untouched")
}

func TestPopulatedColumns(t *testing.T) {
	now := time.Now()
	cols := storage.PopulatedColumns(model.Enrollment{HackathonName: "h", UserID: "u", Status: 1, UpdatedAt: now})
	assert.Equal(t, []string{"status", "updated_at"}, cols)

	v, ok := storage.ColumnValue(model.Enrollment{Status: 3}, "status")
	require.True(t, ok)
	assert.Equal(t, model.EnrollmentStatusRejected, v)
}

func TestMemTable_CRUD(t *testing.T) {
	ctx := context.Background()
	table := storage.NewMemTable[model.Enrollment]()

	_, err := table.Retrieve(ctx, "hack", "u1")
	assert.True(t, goerrors.Is(err, storage.ErrNotFound))
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, table.Insert(ctx, enrollment("hack", "u1", model.EnrollmentStatusPendingApproval)))
	err = table.Insert(ctx, enrollment("hack", "u1", model.EnrollmentStatusApproved))
	assert.True(t, goerrors.Is(err, storage.ErrAlreadyExists))
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryConflict))

	require.NoError(t, table.Merge(ctx, enrollment("hack", "u1", model.EnrollmentStatusApproved), "status"))
	got, err := table.Retrieve(ctx, "hack", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusApproved, got.Status)

	err = table.Merge(ctx, enrollment("hack", "nobody", model.EnrollmentStatusApproved), "status")
	assert.True(t, goerrors.Is(err, storage.ErrNotFound))
	err = table.Merge(ctx, enrollment("elsewhere", "u1", model.EnrollmentStatusApproved))
	assert.True(t, goerrors.Is(err, storage.ErrNotFound))

	require.NoError(t, table.Delete(ctx, "hack", "u1"))
	require.NoError(t, table.Delete(ctx, "hack", "u1"))
	require.NoError(t, table.Delete(ctx, "never", "u1"))
	_, err = table.Retrieve(ctx, "hack", "u1")
	assert.True(t, storage.IsNotFound(err))
}

func TestMemTable_MergeIf(t *testing.T) {
	ctx := context.Background()
	table := storage.NewMemTable[model.Hackathon]()

	h := model.NewHackathon("hack")
	h.Enrollment = 5
	require.NoError(t, table.Insert(ctx, h))

	expect := []storage.Condition{{Field: "Enrollment", Value: 5}}
	h.Enrollment = 6
	require.NoError(t, table.MergeIf(ctx, h, expect, "enrollment"))

	h.Enrollment = 7
	assert.ErrorIs(t, table.MergeIf(ctx, h, expect, "enrollment"), storage.ErrConditionFailed)

	got, err := table.Retrieve(ctx, "hack", model.HackathonRowKey)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Enrollment)

	assert.ErrorIs(t, table.MergeIf(ctx, model.NewHackathon("ghost"), expect, "enrollment"), storage.ErrNotFound)
}

func TestMemTable_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table := storage.NewMemTable[model.Enrollment]()

	assert.ErrorIs(t, table.Insert(ctx, enrollment("hack", "u1", 1)), context.Canceled)
	_, err := table.ListPartition(ctx, "hack")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemTable_QueryPaged(t *testing.T) {
	ctx := context.Background()
	table := storage.NewMemTable[model.Enrollment]()
	for i := 0; i < 7; i++ {
		status := model.EnrollmentStatusPendingApproval
		if i%2 == 0 {
			status = model.EnrollmentStatusApproved
		}
		require.NoError(t, table.Insert(ctx, enrollment("hack", fmt.Sprintf("u%d", i), status)))
	}
	require.NoError(t, table.Insert(ctx, enrollment("other", "x", model.EnrollmentStatusApproved)))

	t.Run("requires partition", func(t *testing.T) {
		_, err := table.QueryPaged(ctx, storage.Query{})
		assert.True(t, goerrors.Is(err, storage.ErrPartitionRequired))
	})

	t.Run("ascending pages", func(t *testing.T) {
		var keys []string
		q := storage.Query{Filter: storage.Filter{PartitionKey: "hack"}, Top: 3}
		pages := 0
		for {
			page, err := table.QueryPaged(ctx, q)
			require.NoError(t, err)
			pages++
			for _, e := range page.Items {
				keys = append(keys, e.UserID)
			}
			if page.Next == nil {
				break
			}
			assert.Equal(t, "hack", page.Next.NextPartitionKey)
			q.Token = page.Next
		}
		assert.Equal(t, 3, pages)
		assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6"}, keys)
	})

	t.Run("descending with filter", func(t *testing.T) {
		q := storage.Query{
			Filter: storage.Filter{PartitionKey: "hack"}.Where("Status", model.EnrollmentStatusApproved),
			Top:    2,
			Order:  storage.OrderDescending,
		}
		page, err := table.QueryPaged(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "u6", page.Items[0].UserID)
		assert.Equal(t, "u4", page.Items[1].UserID)
		require.NotNil(t, page.Next)

		q.Token = page.Next
		page, err = table.QueryPaged(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "u2", page.Items[0].UserID)
		assert.Equal(t, "u0", page.Items[1].UserID)
		assert.Nil(t, page.Next)
	})

	t.Run("unknown partition", func(t *testing.T) {
		page, err := table.QueryPaged(ctx, storage.Query{Filter: storage.Filter{PartitionKey: "none"}})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Nil(t, page.Next)
	})
}

func TestMemTable_ListPartition(t *testing.T) {
	ctx := context.Background()
	table := storage.NewMemTable[model.Enrollment]()

	empty, err := table.ListPartition(ctx, "hack")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, table.Insert(ctx, enrollment("hack", "b", 1)))
	require.NoError(t, table.Insert(ctx, enrollment("hack", "a", 1)))
	list, err := table.ListPartition(ctx, "hack")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].UserID)
}
