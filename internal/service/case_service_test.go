package service

import (
	"context"
	"sync"
	"testing"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseService_Create(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	cat := seedCategory(t, db, "Медична допомога")
	ch := seedChannel(t, db, "Телефон")

	cs, err := svc.Create(ctx, operator, CreateCaseInput{
		CategoryID:     cat.ID,
		ChannelID:      ch.ID,
		ApplicantName:  "Петренко Марія",
		ApplicantPhone: "+380 (44) 123-45-67",
		ApplicantEmail: "maria@example.com",
		Summary:        "Запит щодо графіку роботи відділення",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusNew, cs.Status)
	assert.Nil(t, cs.ResponsibleID)
	assert.Equal(t, operator.ID, cs.AuthorID)
	assert.GreaterOrEqual(t, cs.PublicID, int64(100000))

	// creation writes the initial history row with no old status
	history, err := svc.History(ctx, cs.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, model.CaseStatusNew, history[0].NewStatus)
	assert.Equal(t, operator.ID, history[0].ChangedByID)
}

func TestCaseService_Create_Validation(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	cat := seedCategory(t, db, "Скарги")
	ch := seedChannel(t, db, "Email")

	cases := []struct {
		name string
		in   CreateCaseInput
	}{
		{"missing applicant name", CreateCaseInput{CategoryID: cat.ID, ChannelID: ch.ID, Summary: "text"}},
		{"empty summary", CreateCaseInput{CategoryID: cat.ID, ChannelID: ch.ID, ApplicantName: "Іванов"}},
		{"bad phone", CreateCaseInput{CategoryID: cat.ID, ChannelID: ch.ID, ApplicantName: "Іванов", Summary: "text", ApplicantPhone: "abc"}},
		{"bad email", CreateCaseInput{CategoryID: cat.ID, ChannelID: ch.ID, ApplicantName: "Іванов", Summary: "text", ApplicantEmail: "not-an-email"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, operator, tc.in)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestCaseService_Create_InactiveCategory(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	cat := seedCategory(t, db, "Архівна категорія")
	ch := seedChannel(t, db, "Сайт")
	require.NoError(t, db.Model(cat).Update("is_active", false).Error)

	_, err := svc.Create(ctx, operator, CreateCaseInput{
		CategoryID:    cat.ID,
		ChannelID:     ch.ID,
		ApplicantName: "Іванов",
		Summary:       "text",
	})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCaseService_Take(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Медична допомога")
	ch := seedChannel(t, db, "Телефон")
	grantCategory(t, db, executor, cat)
	cs := seedCase(t, svc, operator, cat, ch)

	taken, err := svc.Take(ctx, executor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusInProgress, taken.Status)
	require.NotNil(t, taken.ResponsibleID)
	assert.Equal(t, executor.ID, *taken.ResponsibleID)
	assert.EqualValues(t, 2, historyCount(t, db, cs.ID))

	// second take of the same case conflicts
	other := seedUser(t, db, model.RoleExecutor)
	grantCategory(t, db, other, cat)
	_, err = svc.Take(ctx, other, cs.ID)
	assert.ErrorIs(t, err, errs.ErrAlreadyTaken)
}

func TestCaseService_Take_Authorization(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	admin := seedUser(t, db, model.RoleAdmin)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Скарги")
	ch := seedChannel(t, db, "Email")
	cs := seedCase(t, svc, operator, cat, ch)

	_, err := svc.Take(ctx, operator, cs.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	// admins assign explicitly, they do not take
	_, err = svc.Take(ctx, admin, cs.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	// executor without a grant for the case's category
	_, err = svc.Take(ctx, executor, cs.ID)
	assert.ErrorIs(t, err, errs.ErrForbiddenCategory)
}

func TestCaseService_Take_Concurrent(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	cat := seedCategory(t, db, "Медична допомога")
	ch := seedChannel(t, db, "Телефон")
	cs := seedCase(t, svc, operator, cat, ch)

	const n = 8
	executors := make([]*model.User, n)
	for i := range executors {
		executors[i] = seedUser(t, db, model.RoleExecutor)
		grantCategory(t, db, executors[i], cat)
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Take(ctx, executors[i], cs.ID)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		default:
			assert.ErrorIs(t, err, errs.ErrAlreadyTaken)
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one executor must win the take")
	assert.Equal(t, n-1, lost)

	// creation row plus exactly one take row
	assert.EqualValues(t, 2, historyCount(t, db, cs.ID))
}

func TestCaseService_Assign(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	admin := seedUser(t, db, model.RoleAdmin)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Адміністративні питання")
	ch := seedChannel(t, db, "Телефон")
	cs := seedCase(t, svc, operator, cat, ch)

	assigned, err := svc.Assign(ctx, admin, cs.ID, &executor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusInProgress, assigned.Status)
	require.NotNil(t, assigned.ResponsibleID)
	assert.Equal(t, executor.ID, *assigned.ResponsibleID)

	// unassign releases the case back to NEW
	released, err := svc.Assign(ctx, admin, cs.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusNew, released.Status)
	assert.Nil(t, released.ResponsibleID)

	assert.EqualValues(t, 3, historyCount(t, db, cs.ID))
}

func TestCaseService_Assign_Rules(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	admin := seedUser(t, db, model.RoleAdmin)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Скарги")
	ch := seedChannel(t, db, "Сайт")

	t.Run("executor cannot assign", func(t *testing.T) {
		cs := seedCase(t, svc, operator, cat, ch)
		_, err := svc.Assign(ctx, executor, cs.ID, &executor.ID)
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("target must not be operator", func(t *testing.T) {
		cs := seedCase(t, svc, operator, cat, ch)
		_, err := svc.Assign(ctx, admin, cs.ID, &operator.ID)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("target must be active", func(t *testing.T) {
		cs := seedCase(t, svc, operator, cat, ch)
		inactive := seedUser(t, db, model.RoleExecutor)
		require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
		_, err := svc.Assign(ctx, admin, cs.ID, &inactive.ID)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("terminal case cannot be reassigned", func(t *testing.T) {
		cs := seedCase(t, svc, operator, cat, ch)
		_, err := svc.Assign(ctx, admin, cs.ID, &executor.ID)
		require.NoError(t, err)
		_, err = svc.ChangeStatus(ctx, admin, cs.ID, model.CaseStatusDone, "виконано, відповідь надано заявнику")
		require.NoError(t, err)
		_, err = svc.Assign(ctx, admin, cs.ID, &executor.ID)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})
}

func TestCaseService_ChangeStatus_Executor(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Медична допомога")
	ch := seedChannel(t, db, "Телефон")
	grantCategory(t, db, executor, cat)
	cs := seedCase(t, svc, operator, cat, ch)

	_, err := svc.Take(ctx, executor, cs.ID)
	require.NoError(t, err)

	// executor cannot move straight out of their own table
	_, err = svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusNew, "спроба повернути звернення в чергу")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	updated, err := svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusNeedsInfo, "потрібні додаткові документи від заявника")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusNeedsInfo, updated.Status)

	updated, err = svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusDone, "інформацію отримано, питання вирішено")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusDone, updated.Status)

	// terminal for executor
	_, err = svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusInProgress, "повторне відкриття виконавцем заборонено")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	history, err := svc.History(ctx, cs.ID)
	require.NoError(t, err)
	require.Len(t, history, 4) // create, take, two status changes
	last := history[len(history)-1]
	require.NotNil(t, last.OldStatus)
	assert.Equal(t, model.CaseStatusNeedsInfo, *last.OldStatus)
	assert.Equal(t, model.CaseStatusDone, last.NewStatus)
	assert.NotEmpty(t, last.Comment)
}

func TestCaseService_ChangeStatus_CommentRequired(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Скарги")
	ch := seedChannel(t, db, "Email")
	grantCategory(t, db, executor, cat)
	cs := seedCase(t, svc, operator, cat, ch)
	_, err := svc.Take(ctx, executor, cs.ID)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusDone, "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.ChangeStatus(ctx, executor, cs.ID, model.CaseStatusDone, "коротко")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// nothing was applied
	reloaded, err := svc.GetByID(ctx, executor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusInProgress, reloaded.Status)
	assert.EqualValues(t, 2, historyCount(t, db, cs.ID))
}

func TestCaseService_ChangeStatus_Admin(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	admin := seedUser(t, db, model.RoleAdmin)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Подяки")
	ch := seedChannel(t, db, "Сайт")
	cs := seedCase(t, svc, operator, cat, ch)

	// admin moving an unassigned case out of NEW becomes responsible
	updated, err := svc.ChangeStatus(ctx, admin, cs.ID, model.CaseStatusRejected, "дублікат звернення 100001, відхилено")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusRejected, updated.Status)
	require.NotNil(t, updated.ResponsibleID)
	assert.Equal(t, admin.ID, *updated.ResponsibleID)

	// admin may reopen a terminal case
	updated, err = svc.ChangeStatus(ctx, admin, cs.ID, model.CaseStatusInProgress, "відхилення скасовано, звернення в роботі")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusInProgress, updated.Status)

	// moving back to NEW clears the responsible
	_, err = svc.Assign(ctx, admin, cs.ID, &executor.ID)
	require.NoError(t, err)
	updated, err = svc.ChangeStatus(ctx, admin, cs.ID, model.CaseStatusNew, "повернуто в чергу для іншого виконавця")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusNew, updated.Status)
	assert.Nil(t, updated.ResponsibleID)
}

func TestCaseService_ChangeStatus_Operator(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	cat := seedCategory(t, db, "Інше")
	ch := seedChannel(t, db, "Телефон")
	cs := seedCase(t, svc, operator, cat, ch)

	_, err := svc.ChangeStatus(ctx, operator, cs.ID, model.CaseStatusDone, "оператор намагається закрити власне звернення")
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestCaseService_GetByID_Visibility(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	author := seedUser(t, db, model.RoleOperator)
	otherOperator := seedUser(t, db, model.RoleOperator)
	executor := seedUser(t, db, model.RoleExecutor)
	admin := seedUser(t, db, model.RoleAdmin)
	cat := seedCategory(t, db, "Благодійність")
	ch := seedChannel(t, db, "Email")
	cs := seedCase(t, svc, author, cat, ch)

	_, err := svc.GetByID(ctx, author, cs.ID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, otherOperator, cs.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.GetByID(ctx, executor, cs.ID)
	assert.ErrorIs(t, err, errs.ErrForbiddenCategory)

	grantCategory(t, db, executor, cat)
	_, err = svc.GetByID(ctx, executor, cs.ID)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, admin, cs.ID)
	assert.NoError(t, err)
}

func TestCaseService_Comments(t *testing.T) {
	db := testDB(t)
	svc := newTestCaseService(db)
	ctx := context.Background()

	operator := seedUser(t, db, model.RoleOperator)
	executor := seedUser(t, db, model.RoleExecutor)
	cat := seedCategory(t, db, "Медична допомога")
	ch := seedChannel(t, db, "Телефон")
	grantCategory(t, db, executor, cat)
	cs := seedCase(t, svc, operator, cat, ch)

	_, err := svc.AddComment(ctx, operator, cs.ID, "дя", false)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.AddComment(ctx, operator, cs.ID, "внутрішня нотатка", true)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.AddComment(ctx, operator, cs.ID, "заявник передзвонив, уточнив номер палати", false)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, executor, cs.ID, "перевірено по внутрішній базі", true)
	require.NoError(t, err)

	// operator must not see the internal comment
	visible, err := svc.ListComments(ctx, operator, cs.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.False(t, visible[0].IsInternal)

	all, err := svc.ListComments(ctx, executor, cs.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
