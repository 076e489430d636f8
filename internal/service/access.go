package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
)

// Action names an operation that requires authorization.
type Action string

const (
	ActionAttendanceView     Action = "attendance.view"
	ActionAttendanceMark     Action = "attendance.mark"
	ActionAttendanceFinalize Action = "attendance.finalize"
	ActionAttendanceReopen   Action = "attendance.reopen"
	ActionStudentsManage     Action = "students.manage"
	ActionStudentsTransfer   Action = "students.transfer"
	ActionClassesManage      Action = "classes.manage"
	ActionStaffManage        Action = "staff.manage"
	ActionReportsView        Action = "reports.view"
)

var actionRoles = map[Action][]models.Role{
	ActionAttendanceView:     {models.RoleAdmin, models.RoleStaff},
	ActionAttendanceMark:     {models.RoleAdmin, models.RoleStaff},
	ActionAttendanceFinalize: {models.RoleAdmin, models.RoleStaff},
	ActionAttendanceReopen:   {models.RoleAdmin},
	ActionStudentsManage:     {models.RoleAdmin, models.RoleStaff},
	ActionStudentsTransfer:   {models.RoleAdmin, models.RoleStaff},
	ActionClassesManage:      {models.RoleAdmin},
	ActionStaffManage:        {models.RoleAdmin},
	ActionReportsView:        {models.RoleAdmin, models.RoleStaff},
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Denial reasons reported by the gate.
const (
	ReasonNotRegistered      = "account is not registered"
	ReasonInactive           = "account is inactive"
	ReasonInsufficientAccess = "insufficient permissions"
	ReasonUnknownAction      = "unknown action"
)

// AccessGate decides whether an actor may perform an action.
type AccessGate interface {
	Authorize(ctx context.Context, actorID uint, action Action) (Decision, error)
}

type accessGate struct {
	users repository.UserRepository
}

// NewAccessGate builds a gate that checks the actor's current role and status.
func NewAccessGate(users repository.UserRepository) AccessGate {
	return &accessGate{users: users}
}

func (g *accessGate) Authorize(ctx context.Context, actorID uint, action Action) (Decision, error) {
	roles, ok := actionRoles[action]
	if !ok {
		return Decision{Reason: ReasonUnknownAction}, nil
	}
	if actorID == 0 {
		return Decision{Reason: ReasonNotRegistered}, nil
	}

	user, err := g.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{Reason: ReasonNotRegistered}, nil
		}
		return Decision{}, err
	}
	if !user.IsActive {
		return Decision{Reason: ReasonInactive}, nil
	}

	for _, role := range roles {
		if user.Role == role {
			return Decision{Allowed: true}, nil
		}
	}

	return Decision{Reason: ReasonInsufficientAccess}, nil
}
