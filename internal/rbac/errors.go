package rbac

import (
	"errors"
	"fmt"

	"github.com/hrdesk/hrdesk/internal/shared"
)

// Denial categories. Every denial unwraps to exactly one of them.
var (
	ErrForbidden       = shared.ErrForbidden
	ErrUnauthenticated = shared.ErrLoginRequired
)

// ErrReferentNotFound is returned by OwnerResolver implementations when the
// referenced employee does not exist. The evaluator reports it as a
// Forbidden denial so callers cannot learn which ids exist.
var ErrReferentNotFound = errors.New("rbac: referent not found")

// Denial messages.
const (
	MsgLoginRequired          = "You must be logged in to perform this action."
	MsgInsufficientPermission = "You do not have permission to perform this action: insufficient permission."
)

// Reason classifies a denial.
type Reason int

const (
	// ReasonForbidden covers authenticated principals that are not allowed.
	ReasonForbidden Reason = iota
	// ReasonUnauthenticated covers requests without a valid principal.
	ReasonUnauthenticated
)

func (r Reason) String() string {
	if r == ReasonUnauthenticated {
		return "unauthenticated"
	}
	return "forbidden"
}

// Denial is the structured result of a failed check.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string {
	return d.Message
}

// Unwrap exposes the denial category.
func (d *Denial) Unwrap() error {
	if d.Reason == ReasonUnauthenticated {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// AsDenial extracts a Denial from err.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

func denyLogin() error {
	return &Denial{Reason: ReasonUnauthenticated, Message: MsgLoginRequired}
}

func denyInsufficient() error {
	return &Denial{Reason: ReasonForbidden, Message: MsgInsufficientPermission}
}

func denyEmployee(id string) error {
	return &Denial{Reason: ReasonForbidden, Message: fmt.Sprintf("You do not have permission to access employee %s's data.", id)}
}

func denyMissingEmployee(id string) error {
	return &Denial{Reason: ReasonForbidden, Message: fmt.Sprintf("Employee with ID %s does not exist.", id)}
}
