package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow/service/dao"
)

type run struct {
	ID   string
	Flow string
}

func TestService(t *testing.T) {
	ctx := context.Background()
	srv := New[string, run](func(r *run) string { return r.ID }, func(r *run) map[string]string {
		return map[string]string{"flow": r.Flow}
	})
	require.NoError(t, srv.Save(ctx, &run{ID: "1", Flow: "report"}))
	require.NoError(t, srv.Save(ctx, &run{ID: "2", Flow: "routing"}))
	require.NoError(t, srv.Save(ctx, &run{ID: "3", Flow: "routing"}))
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)

	loaded, err := srv.Load(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "routing", loaded.Flow)

	all, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*run{{ID: "1", Flow: "report"}, {ID: "2", Flow: "routing"}, {ID: "3", Flow: "routing"}}, all)

	routing, err := srv.List(ctx, dao.NewParameter("flow", "routing"))
	require.NoError(t, err)
	assert.Len(t, routing, 2)
	either, err := srv.List(ctx, dao.NewParameter("flow", "report", "routing"))
	require.NoError(t, err)
	assert.Len(t, either, 3)
	none, err := srv.List(ctx, dao.NewParameter("status", "x"))
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, srv.Delete(ctx, "2"))
	_, err = srv.Load(ctx, "2")
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	assert.ErrorIs(t, srv.Delete(ctx, "2"), dao.ErrNotFound)
}
