package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewStore(0)
	created := store.Create("tenant-1")

	before, err := store.Get("tenant-1", created.ID)
	require.NoError(t, err)

	accountID := "A1"
	err = store.Update("tenant-1", created.ID, func(sess *Session) error {
		sess.Sheets.Present[models.SheetKindLeads] = true
		sess.Overrides["J1"] = &accountID
		return nil
	})
	require.NoError(t, err)

	// The snapshot taken before the update never sees it.
	assert.False(t, before.Sheets.Present[models.SheetKindLeads])
	assert.Empty(t, before.Overrides)

	after, err := store.Get("tenant-1", created.ID)
	require.NoError(t, err)
	assert.True(t, after.Sheets.Present[models.SheetKindLeads])
	require.Contains(t, after.Overrides, "J1")
	assert.Equal(t, &accountID, after.Overrides["J1"])
}

func TestStoreGetWrongTenant(t *testing.T) {
	store := NewStore(0)
	created := store.Create("tenant-1")

	_, err := store.Get("tenant-2", created.ID)
	require.Error(t, err)
}
