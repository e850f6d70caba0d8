package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryAccessService_ReplaceGrants(t *testing.T) {
	db := testDB(t)
	svc := NewCategoryAccessService(db)
	ctx := context.Background()

	executor := seedUser(t, db, model.RoleExecutor)
	catA := seedCategory(t, db, "Медична допомога")
	catB := seedCategory(t, db, "Скарги")
	catC := seedCategory(t, db, "Подяки")

	require.NoError(t, svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{catA.ID, catB.ID}))

	ids, err := svc.AccessibleCategoryIDs(ctx, executor.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{catA.ID, catB.ID}, ids)

	// full replace: {A,B} -> {B,C} drops A
	require.NoError(t, svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{catB.ID, catC.ID}))
	ids, err = svc.AccessibleCategoryIDs(ctx, executor.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{catB.ID, catC.ID}, ids)

	ok, err := svc.HasAccess(ctx, executor.ID, catA.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// empty set revokes everything
	require.NoError(t, svc.ReplaceGrants(ctx, executor.ID, nil))
	ids, err = svc.AccessibleCategoryIDs(ctx, executor.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCategoryAccessService_ReplaceGrants_Validation(t *testing.T) {
	db := testDB(t)
	svc := NewCategoryAccessService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	admin := seedUser(t, db, model.RoleAdmin)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Інше")

	err := svc.ReplaceGrants(ctx, operator.ID, []uuid.UUID{cat.ID})
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = svc.ReplaceGrants(ctx, admin.ID, []uuid.UUID{cat.ID})
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = svc.ReplaceGrants(ctx, uuid.New(), []uuid.UUID{cat.ID})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	err = svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{cat.ID, uuid.New()})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// a failed replace must not wipe the current grants
	require.NoError(t, svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{cat.ID}))
	err = svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, errs.ErrNotFound)
	ids, err := svc.AccessibleCategoryIDs(ctx, executor.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{cat.ID}, ids)
}

func TestCategoryAccessService_DuplicatesCollapse(t *testing.T) {
	db := testDB(t)
	svc := NewCategoryAccessService(db)
	ctx := context.Background()

	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Благодійність")

	require.NoError(t, svc.ReplaceGrants(ctx, executor.ID, []uuid.UUID{cat.ID, cat.ID, cat.ID}))
	ids, err := svc.AccessibleCategoryIDs(ctx, executor.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
