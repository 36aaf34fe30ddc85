package rbac

import "context"

type principalContextKey struct{}

type actionContextKey struct{}

type guardedAction struct {
	resource ResourceType
	action   Action
	// byPermission is set when admin status or a role permission let the
	// request through, as opposed to an ownership rule.
	byPermission bool
	employee     *int64
}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, defaulting to Anonymous.
func PrincipalFromContext(ctx context.Context) Principal {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok {
		return Anonymous()
	}
	return p
}

func contextWithAction(ctx context.Context, ga guardedAction) context.Context {
	return context.WithValue(ctx, actionContextKey{}, ga)
}

func actionFromContext(ctx context.Context) (guardedAction, bool) {
	ga, ok := ctx.Value(actionContextKey{}).(guardedAction)
	return ga, ok
}

// EmployeeFilter returns the employee_id the guard evaluated for this request,
// or nil when none was sent. Handlers filter listings by it instead of
// re-reading the query string.
func EmployeeFilter(ctx context.Context) *int64 {
	ga, ok := actionFromContext(ctx)
	if !ok || ga.employee == nil {
		return nil
	}
	id := *ga.employee
	return &id
}
