package rbac

import (
	"context"
	"errors"
	"strconv"
)

// Request describes a coarse-grained check, made before any record is loaded.
type Request struct {
	Resource ResourceType
	Action   Action
	// EmployeeHint is the employee_id query parameter, if any.
	EmployeeHint string
	// PayloadEmployee is the employee referenced by a create payload, if any.
	PayloadEmployee string
	// PayloadAdmin is set when a user create payload asks for an admin account.
	PayloadAdmin bool
}

// ObjectRequest describes a fine-grained check against a loaded record.
type ObjectRequest struct {
	Resource ResourceType
	Action   Action
	Target   any
}

// Evaluator decides whether a principal may act on a resource.
// It keeps no state between calls.
type Evaluator struct {
	catalog *Catalog
	owners  OwnerResolver
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(catalog *Catalog, owners OwnerResolver) *Evaluator {
	return &Evaluator{catalog: catalog, owners: owners}
}

// Catalog exposes the catalog the evaluator was built with.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Authorize runs the coarse-grained check. It returns nil on allow, a *Denial
// on deny, or a plain error when ownership resolution itself failed.
func (e *Evaluator) Authorize(ctx context.Context, p Principal, req Request) error {
	_, err := e.authorize(ctx, p, req)
	return err
}

// authorize also reports whether the allow came from admin status or a role
// permission rather than from an ownership rule.
func (e *Evaluator) authorize(ctx context.Context, p Principal, req Request) (bool, error) {
	if req.Resource == ResourceUser {
		return e.authorizeAccount(p, req)
	}
	if !p.IsAuthenticated {
		return false, denyLogin()
	}
	if p.IsAdmin || e.roleGrants(p, req.Resource, req.Action) {
		return true, nil
	}
	if req.Resource.selfService() {
		if hint := req.EmployeeHint; hint != "" {
			own, err := e.ownsEmployee(ctx, p, hint)
			if err != nil {
				return false, err
			}
			if own {
				return false, nil
			}
			return false, denyEmployee(hint)
		}
		if req.Resource == ResourceLeave && req.Action == ActionCreate && req.PayloadEmployee != "" {
			own, err := e.ownsEmployee(ctx, p, req.PayloadEmployee)
			if err != nil {
				return false, err
			}
			if own {
				return false, nil
			}
		}
		// Ownership of a single record can only be decided once it is loaded.
		if req.Action.Instance() {
			return false, nil
		}
	}
	return false, denyInsufficient()
}

// AuthorizeObject runs the fine-grained check against a loaded record.
func (e *Evaluator) AuthorizeObject(_ context.Context, p Principal, req ObjectRequest) error {
	if !p.IsAuthenticated {
		return denyLogin()
	}
	if p.IsAdmin {
		return nil
	}
	if owned, ok := req.Target.(Owned); ok && p.Is(owned.OwnerUserID()) {
		if req.Resource != ResourceUser || accountSelfAction(req.Action) {
			return nil
		}
	}
	if owned, ok := req.Target.(EmployeeOwned); ok && p.Is(owned.EmployeeOwnerUserID()) {
		return nil
	}
	if e.roleGrants(p, req.Resource, req.Action) {
		return nil
	}
	return denyInsufficient()
}

// authorizeAccount applies the user-account policy: anyone may bootstrap the
// admin account, only the admin lists or deletes accounts, and every
// authenticated user may reach the single-account endpoints, where the object
// check restricts them to their own record.
func (e *Evaluator) authorizeAccount(p Principal, req Request) (bool, error) {
	if p.IsAdmin {
		return true, nil
	}
	if req.Action == ActionCreate && req.PayloadAdmin {
		return false, nil
	}
	if !p.IsAuthenticated {
		return false, denyLogin()
	}
	if accountSelfAction(req.Action) {
		return false, nil
	}
	return false, denyInsufficient()
}

func accountSelfAction(a Action) bool {
	return a == ActionRetrieve || a == ActionUpdate || a == ActionPartialUpdate
}

func (e *Evaluator) roleGrants(p Principal, resource ResourceType, action Action) bool {
	key, ok := e.catalog.Lookup(resource, action)
	if !ok {
		return false
	}
	return p.Role.Has(key)
}

// ownsEmployee resolves the raw employee reference and compares its owner with
// the principal. Unknown or malformed ids yield a Forbidden denial.
func (e *Evaluator) ownsEmployee(ctx context.Context, p Principal, raw string) (bool, error) {
	id, ok := ParseEmployeeID(raw)
	if !ok || e.owners == nil {
		return false, denyMissingEmployee(raw)
	}
	owner, err := e.owners.ResolveEmployeeOwner(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReferentNotFound) {
			return false, denyMissingEmployee(raw)
		}
		return false, err
	}
	return p.Is(owner), nil
}

// ParseEmployeeID parses an employee reference exactly as it was sent.
// Surrounding spaces, a plus sign and non-positive ids are rejected.
func ParseEmployeeID(raw string) (int64, bool) {
	if raw == "" || raw[0] == '+' {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
