package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-hackathon-store/cache"
	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/pkg/testsupport"
	"github.com/goliatone/go-hackathon-store/repositorycache"
	"github.com/goliatone/go-hackathon-store/storage"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := cache.NewCacheService(cache.DefaultConfig(), nil)
	require.NoError(t, err)
	table := repositorycache.New[model.HackathonAdmin](storage.NewMemTable[model.HackathonAdmin](), svc, cache.NewDefaultKeySerializer(), cache.KindHackathonAdmin)
	clock := testsupport.NewClock(testsupport.Epoch)
	return NewService(table, nil, clock.Tick(time.Second))
}

func TestCreateAndIsAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "Hack", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hack", a.HackathonName)

	ok, err := svc.IsAdmin(ctx, "HACK", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(ctx, "hack", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreate_Idempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "hack", "alice")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "hack", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestCreate_Blank(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), " ", "alice")
	assert.ErrorIs(t, err, ErrInvalidAdmin)
	_, err = svc.Create(context.Background(), "hack", "")
	assert.ErrorIs(t, err, ErrInvalidAdmin)
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "hack", "alice")
	require.NoError(t, err)

	page, err := svc.ListPaginated(ctx, "hack", lifecycle.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.NoError(t, svc.Delete(ctx, "hack", "alice"))

	ok, err := svc.IsAdmin(ctx, "hack", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	page, err = svc.ListPaginated(ctx, "hack", lifecycle.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListPaginated(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := svc.Create(ctx, "hack", fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
	}

	first, err := svc.ListPaginated(ctx, "hack", lifecycle.ListOptions{PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.Equal(t, "user-3", first.Items[0].UserID)
	require.NotNil(t, first.Next)

	second, err := svc.ListPaginated(ctx, "hack", lifecycle.ListOptions{Token: first.NextToken()})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "user-0", second.Items[0].UserID)
	assert.Nil(t, second.Next)
}
