package workflow

import "github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"

// Action is an operation a caller may request against the service.
type Action string

const (
	ActionCreateCase      Action = "case.create"
	ActionTakeCase        Action = "case.take"
	ActionAssignCase      Action = "case.assign"
	ActionChangeStatus    Action = "case.change_status"
	ActionViewAllCases    Action = "case.view_all"
	ActionInternalComment Action = "comment.internal"
	ActionManageUsers     Action = "users.manage"
	ActionGrantAccess     Action = "access.grant"
	ActionManageReference Action = "reference.manage"
	ActionViewDashboard   Action = "dashboard.view"
)

// capabilities maps each action to the roles allowed to perform it. This is
// the single source of truth consulted by every handler; clients render their
// role-gated controls from the same answers.
var capabilities = map[Action]map[model.UserRole]struct{}{
	ActionCreateCase:      roles(model.RoleOperator, model.RoleExecutor, model.RoleAdmin),
	ActionTakeCase:        roles(model.RoleExecutor),
	ActionAssignCase:      roles(model.RoleAdmin),
	ActionChangeStatus:    roles(model.RoleExecutor, model.RoleAdmin),
	ActionViewAllCases:    roles(model.RoleAdmin),
	ActionInternalComment: roles(model.RoleExecutor, model.RoleAdmin),
	ActionManageUsers:     roles(model.RoleAdmin),
	ActionGrantAccess:     roles(model.RoleAdmin),
	ActionManageReference: roles(model.RoleAdmin),
	ActionViewDashboard:   roles(model.RoleAdmin),
}

func roles(rs ...model.UserRole) map[model.UserRole]struct{} {
	m := make(map[model.UserRole]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

// Authorize reports whether role may perform action.
func Authorize(role model.UserRole, action Action) bool {
	allowed, ok := capabilities[action]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}
