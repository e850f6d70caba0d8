// Package workflow holds the case lifecycle rules: which role may move a case
// between which statuses, and which role may perform which operation. The
// rules live in lookup tables rather than branching code so they can be
// audited and tested in isolation.
package workflow

import "github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"

// Comment bounds for an explicit status change.
const (
	MinStatusComment = 10
	MaxStatusComment = 500
)

type statusSet map[model.CaseStatus]struct{}

func newSet(statuses ...model.CaseStatus) statusSet {
	s := make(statusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// executorTransitions is the EXECUTOR transition table. NEW is absent: an
// executor must take a case before moving it. DONE and REJECTED are terminal.
var executorTransitions = map[model.CaseStatus]statusSet{
	model.CaseStatusInProgress: newSet(model.CaseStatusNeedsInfo, model.CaseStatusRejected, model.CaseStatusDone),
	model.CaseStatusNeedsInfo:  newSet(model.CaseStatusInProgress, model.CaseStatusRejected, model.CaseStatusDone),
}

// Can reports whether role may move a case from one status to another.
// OPERATOR has no transition rights. ADMIN may move to any other status,
// including reopening terminal cases.
func Can(role model.UserRole, from, to model.CaseStatus) bool {
	if !model.ValidStatus(from) || !model.ValidStatus(to) || from == to {
		return false
	}
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleExecutor:
		allowed, ok := executorTransitions[from]
		if !ok {
			return false
		}
		_, ok = allowed[to]
		return ok
	default:
		return false
	}
}

// Targets returns the statuses role may move a case in status from to.
func Targets(role model.UserRole, from model.CaseStatus) []model.CaseStatus {
	var out []model.CaseStatus
	for _, to := range model.AllStatuses {
		if Can(role, from, to) {
			out = append(out, to)
		}
	}
	return out
}

// IsTerminal reports whether status ends the normal lifecycle. Only ADMIN may
// move a case out of a terminal status.
func IsTerminal(status model.CaseStatus) bool {
	return status == model.CaseStatusDone || status == model.CaseStatusRejected
}

// ValidStatusComment reports whether comment satisfies the mandatory-comment
// policy for an explicit status change.
func ValidStatusComment(comment string) bool {
	n := len([]rune(comment))
	return n >= MinStatusComment && n <= MaxStatusComment
}
