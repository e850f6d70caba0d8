package service

import (
	"context"
	"testing"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceService_Categories(t *testing.T) {
	db := testDB(t)
	svc := NewReferenceService(db)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "Медична допомога")
	require.NoError(t, err)
	assert.True(t, cat.IsActive)

	_, err = svc.CreateCategory(ctx, "Медична допомога")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateCategory(ctx, "x")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// deactivation hides the entry from the default listing
	inactive := false
	_, err = svc.UpdateCategory(ctx, cat.ID, nil, &inactive)
	require.NoError(t, err)

	active, err := svc.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReferenceService_Channels(t *testing.T) {
	db := testDB(t)
	svc := NewReferenceService(db)
	ctx := context.Background()

	ch, err := svc.CreateChannel(ctx, "Телефон")
	require.NoError(t, err)

	newName := "Гаряча лінія"
	updated, err := svc.UpdateChannel(ctx, ch.ID, &newName, nil)
	require.NoError(t, err)
	assert.Equal(t, "Гаряча лінія", updated.Name)

	channels, err := svc.ListChannels(ctx, false)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "Гаряча лінія", channels[0].Name)
}
