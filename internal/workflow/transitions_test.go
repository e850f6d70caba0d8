package workflow

import (
	"strings"
	"testing"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestOperatorHasNoTransitions(t *testing.T) {
	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			assert.False(t, Can(model.RoleOperator, from, to),
				"operator must not move %s -> %s", from, to)
		}
	}
}

func TestAdminMayReachAnyOtherStatus(t *testing.T) {
	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			got := Can(model.RoleAdmin, from, to)
			assert.Equal(t, from != to, got, "admin %s -> %s", from, to)
		}
	}
}

func TestExecutorTransitionTable(t *testing.T) {
	allowed := map[model.CaseStatus][]model.CaseStatus{
		model.CaseStatusNew:        nil, // must take the case first
		model.CaseStatusInProgress: {model.CaseStatusNeedsInfo, model.CaseStatusRejected, model.CaseStatusDone},
		model.CaseStatusNeedsInfo:  {model.CaseStatusInProgress, model.CaseStatusRejected, model.CaseStatusDone},
		model.CaseStatusDone:       nil,
		model.CaseStatusRejected:   nil,
	}
	for from, targets := range allowed {
		want := make(map[model.CaseStatus]bool, len(targets))
		for _, to := range targets {
			want[to] = true
		}
		for _, to := range model.AllStatuses {
			assert.Equal(t, want[to], Can(model.RoleExecutor, from, to),
				"executor %s -> %s", from, to)
		}
	}
}

func TestNobodyLeavesTerminalExceptAdmin(t *testing.T) {
	for _, from := range []model.CaseStatus{model.CaseStatusDone, model.CaseStatusRejected} {
		assert.True(t, IsTerminal(from))
		for _, to := range model.AllStatuses {
			assert.False(t, Can(model.RoleExecutor, from, to))
			assert.False(t, Can(model.RoleOperator, from, to))
		}
	}
	assert.False(t, IsTerminal(model.CaseStatusNew))
	assert.False(t, IsTerminal(model.CaseStatusInProgress))
	assert.False(t, IsTerminal(model.CaseStatusNeedsInfo))
}

func TestSelfTransitionNeverAllowed(t *testing.T) {
	for _, role := range []model.UserRole{model.RoleOperator, model.RoleExecutor, model.RoleAdmin} {
		for _, s := range model.AllStatuses {
			assert.False(t, Can(role, s, s), "%s %s -> %s", role, s, s)
		}
	}
}

func TestCanRejectsUnknownStatuses(t *testing.T) {
	assert.False(t, Can(model.RoleAdmin, "BOGUS", model.CaseStatusDone))
	assert.False(t, Can(model.RoleAdmin, model.CaseStatusNew, "BOGUS"))
}

func TestTargets(t *testing.T) {
	assert.Empty(t, Targets(model.RoleExecutor, model.CaseStatusNew))
	assert.ElementsMatch(t,
		[]model.CaseStatus{model.CaseStatusNeedsInfo, model.CaseStatusRejected, model.CaseStatusDone},
		Targets(model.RoleExecutor, model.CaseStatusInProgress))
	assert.Len(t, Targets(model.RoleAdmin, model.CaseStatusDone), len(model.AllStatuses)-1)
}

func TestValidStatusComment(t *testing.T) {
	assert.False(t, ValidStatusComment(""))
	assert.False(t, ValidStatusComment("too short"))
	assert.True(t, ValidStatusComment("Resolved, confirmed by phone."))
	assert.True(t, ValidStatusComment(strings.Repeat("x", MaxStatusComment)))
	assert.False(t, ValidStatusComment(strings.Repeat("x", MaxStatusComment+1)))
	// rune length, not byte length
	assert.True(t, ValidStatusComment(strings.Repeat("б", MinStatusComment)))
}

func TestAuthorize(t *testing.T) {
	assert.True(t, Authorize(model.RoleExecutor, ActionTakeCase))
	assert.False(t, Authorize(model.RoleAdmin, ActionTakeCase), "admin assigns, never takes")
	assert.False(t, Authorize(model.RoleOperator, ActionChangeStatus))
	assert.True(t, Authorize(model.RoleAdmin, ActionAssignCase))
	assert.False(t, Authorize(model.RoleExecutor, ActionAssignCase))
	assert.True(t, Authorize(model.RoleOperator, ActionCreateCase))
	assert.False(t, Authorize(model.RoleOperator, ActionInternalComment))
	assert.False(t, Authorize(model.RoleExecutor, ActionViewDashboard))
	assert.False(t, Authorize("GUEST", ActionCreateCase))
}
