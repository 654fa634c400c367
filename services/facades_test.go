package services

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viz-query-service/models"
)

func facade(id, viewID string) *models.Facade {
	return &models.Facade{
		ID:     id,
		ViewID: viewID,
		Fields: map[string]models.FacadeField{
			"src_ip": {FieldValues: []string{"10.0.0.1"}},
		},
	}
}

func TestFacadeStoreExclusive(t *testing.T) {
	hooks := &recordingHooks{}
	store := NewFacadeStore(hooks)

	require.NoError(t, store.Add(facade("f1", "table"), models.FacadeExclusive))
	require.NoError(t, store.Add(facade("f2", "table"), models.FacadeExclusive))
	assert.Len(t, store.Get(), 2)

	require.NoError(t, store.Add(facade("f3", "hist"), models.FacadeExclusive))
	active := store.Get()
	require.Len(t, active, 1)
	assert.Equal(t, "f3", active[0].ID)
	assert.Equal(t, "hist", store.OriginViewID())

	assert.Equal(t, []string{"table", "table", "table", "hist"}, hooks.stale)
	assert.Equal(t, 3, hooks.indicator)
}

func TestFacadeStoreMulti(t *testing.T) {
	store := NewFacadeStore(nil)
	require.NoError(t, store.Add(facade("f1", "table"), models.FacadeExclusive))
	require.NoError(t, store.Add(facade("f2", "hist"), models.FacadeMulti))

	active := store.Get()
	require.Len(t, active, 2)
	assert.Equal(t, "f1", active[0].ID)
	assert.Equal(t, "f2", active[1].ID)
}

func TestFacadeStoreLocked(t *testing.T) {
	hooks := &recordingHooks{}
	store := NewFacadeStore(hooks)
	require.NoError(t, store.Add(facade("f1", "table"), models.FacadeExclusive))

	err := store.Add(facade("f2", "hist"), models.FacadeLocked)
	assert.True(t, errors.Is(err, ErrFacadeDisallowed))
	require.Len(t, hooks.alerts, 1)
	assert.Contains(t, hooks.alerts[0], "table")

	active := store.Get()
	require.Len(t, active, 1)
	assert.Equal(t, "f1", active[0].ID)
	assert.Equal(t, 1, hooks.indicator)

	// a locked view may still refine its own facades
	require.NoError(t, store.Add(facade("f3", "table"), models.FacadeLocked))
	assert.Len(t, store.Get(), 2)
}

func TestFacadeStoreReplaceAndRemove(t *testing.T) {
	hooks := &recordingHooks{}
	store := NewFacadeStore(hooks)
	assert.False(t, store.Has())

	require.NoError(t, store.Add(facade("f1", "table"), models.FacadeMulti))
	updated := facade("f1", "table")
	updated.Fields["dst_port"] = models.FacadeField{FieldValues: []string{"53"}}
	require.NoError(t, store.Add(updated, models.FacadeMulti))
	require.Len(t, store.Get(), 1)
	got, ok := store.GetByID("f1")
	require.True(t, ok)
	assert.Len(t, got.Fields, 2)

	require.NoError(t, store.Add(facade("f2", "hist"), models.FacadeMulti))
	assert.False(t, store.RemoveByID("missing"))
	assert.True(t, store.RemoveByID("f1"))
	_, ok = store.GetByID("f1")
	assert.False(t, ok)

	indicator := hooks.indicator
	store.Reset()
	assert.False(t, store.Has())
	assert.Equal(t, "", store.OriginViewID())
	assert.Equal(t, indicator+1, hooks.indicator)

	// resetting an empty store is silent
	store.Reset()
	assert.Equal(t, indicator+1, hooks.indicator)
}

func TestFacadeStoreRemoveByOrigin(t *testing.T) {
	store := NewFacadeStore(nil)
	require.NoError(t, store.Set([]*models.Facade{
		facade("f1", "table"),
		facade("f2", "hist"),
		facade("f3", "table"),
	}))
	assert.Equal(t, 2, store.RemoveByOrigin("table"))
	active := store.Get()
	require.Len(t, active, 1)
	assert.Equal(t, "f2", active[0].ID)
	assert.Equal(t, 1, store.Remove("f2", "f9"))
}

func TestFacadeStoreValidation(t *testing.T) {
	store := NewFacadeStore(nil)

	err := store.Add(&models.Facade{Fields: map[string]models.FacadeField{"a": {}}}, models.FacadeExclusive)
	assert.True(t, errors.Is(err, ErrInvalidFacade))
	err = store.Add(&models.Facade{ViewID: "table"}, models.FacadeExclusive)
	assert.True(t, errors.Is(err, ErrInvalidFacade))
	err = store.Set([]*models.Facade{nil})
	assert.True(t, errors.Is(err, ErrInvalidFacade))

	f := facade("", "table")
	require.NoError(t, store.Add(f, models.FacadeExclusive))
	assert.NotEmpty(t, f.ID)
	_, ok := store.GetByID(f.ID)
	assert.True(t, ok)
}
