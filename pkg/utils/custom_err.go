package utils

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	ErrSiteNotFound      = errors.New("site not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNotAMember        = errors.New("not a member of this workspace")

	ErrTicketNotFound  = errors.New("ticket not found")
	ErrInvalidAssignee = errors.New("tickets can only be assigned to admin users")
	ErrInvalidCategory = errors.New("invalid ticket category")

	ErrInviteNotFound      = errors.New("invalid invite link")
	ErrInviteUsed          = errors.New("this invite link has already been used")
	ErrInviteExpired       = errors.New("this invite link has expired")
	ErrInviteEmailMismatch = errors.New("this invite is reserved for a different email address")

	ErrProspectNotFound = errors.New("prospect not found")
	ErrSlugTaken        = errors.New("site slug is already in use")

	ErrNoBillingCustomer = errors.New("no billing customer found for this workspace")

	ErrFormKeyInvalid = errors.New("invalid access key")
	ErrFormDisabled   = errors.New("this form is currently disabled")

	ErrDatabaseError = errors.New("database error")
)

// ValidationError carries a caller-facing message for bad input. These
// are reported back to the user, never logged as system errors.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, a ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// InvalidTransitionError names the attempted edge and the allowed set.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
}

func NewInvalidTransition(from, to string, allowed []string) error {
	return &InvalidTransitionError{From: from, To: to, Allowed: allowed}
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot transition from '%s' to '%s': none (terminal state)", e.From, e.To)
	}
	allowed := ""
	for i, a := range e.Allowed {
		if i > 0 {
			allowed += ", "
		}
		allowed += a
	}
	return fmt.Sprintf("cannot transition from '%s' to '%s'. Allowed: %s", e.From, e.To, allowed)
}
