package rbac

import "fmt"

// Permission binds a named capability to one resource type and canonical action.
type Permission struct {
	Key         string
	Resource    ResourceType
	Action      Action
	DisplayName string
}

// Entry is the introspection view of a permission.
type Entry struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

type guardKey struct {
	resource ResourceType
	action   Action
}

// Catalog is the immutable set of permissions known to the system.
type Catalog struct {
	ordered []Permission
	byKey   map[string]Permission
	byGuard map[guardKey]string
}

// NewCatalog builds a catalog. Keys and (resource, action) pairs must be unique.
func NewCatalog(perms ...Permission) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]Permission, 0, len(perms)),
		byKey:   make(map[string]Permission, len(perms)),
		byGuard: make(map[guardKey]string, len(perms)),
	}
	for _, p := range perms {
		if p.Key == "" {
			return nil, fmt.Errorf("rbac: permission for %s/%s has no key", p.Resource, p.Action)
		}
		if _, dup := c.byKey[p.Key]; dup {
			return nil, fmt.Errorf("rbac: duplicate permission key %q", p.Key)
		}
		if NormalizeAction(p.Action) != p.Action {
			return nil, fmt.Errorf("rbac: permission %q uses non-canonical action %q", p.Key, p.Action)
		}
		gk := guardKey{resource: p.Resource, action: p.Action}
		if other, dup := c.byGuard[gk]; dup {
			return nil, fmt.Errorf("rbac: %s/%s guarded by both %q and %q", p.Resource, p.Action, other, p.Key)
		}
		c.ordered = append(c.ordered, p)
		c.byKey[p.Key] = p
		c.byGuard[gk] = p.Key
	}
	return c, nil
}

// DefaultCatalog returns the HR back-office permissions.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPermissions...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultPermissions = []Permission{
	{Key: "employee_list", Resource: ResourceEmployee, Action: ActionList, DisplayName: "Can list all employees"},
	{Key: "employee_update", Resource: ResourceEmployee, Action: ActionUpdate, DisplayName: "Can update all employees"},
	{Key: "employee_create", Resource: ResourceEmployee, Action: ActionCreate, DisplayName: "Can create employees"},
	{Key: "employee_destroy", Resource: ResourceEmployee, Action: ActionDestroy, DisplayName: "Can delete employees"},
	{Key: "salary_view_all", Resource: ResourceSalary, Action: ActionList, DisplayName: "Can view salaries of all employees"},
	{Key: "salary_update", Resource: ResourceSalary, Action: ActionUpdate, DisplayName: "Can update salaries"},
	{Key: "salary_delete", Resource: ResourceSalary, Action: ActionDestroy, DisplayName: "Can delete salaries"},
	{Key: "leave_view_all", Resource: ResourceLeave, Action: ActionList, DisplayName: "Can view all leave requests"},
	{Key: "leave_update_status", Resource: ResourceLeave, Action: ActionUpdate, DisplayName: "Can update leave status"},
	{Key: "leave_delete", Resource: ResourceLeave, Action: ActionDestroy, DisplayName: "Can delete leave records"},
	{Key: "department_create", Resource: ResourceDepartment, Action: ActionCreate, DisplayName: "Can create departments"},
	{Key: "department_view_all", Resource: ResourceDepartment, Action: ActionList, DisplayName: "Can view all departments"},
	{Key: "department_delete", Resource: ResourceDepartment, Action: ActionDestroy, DisplayName: "Can delete departments"},
	{Key: "department_update", Resource: ResourceDepartment, Action: ActionUpdate, DisplayName: "Can update departments"},
}

// NormalizeAction maps a raw action to the canonical action used for lookup.
// partial_update shares the update permission; retrieve requires the list
// permission. Every other action passes through unchanged.
func NormalizeAction(a Action) Action {
	switch a {
	case ActionPartialUpdate:
		return ActionUpdate
	case ActionRetrieve:
		return ActionList
	}
	return a
}

// Lookup returns the key guarding the resource and (normalized) action.
func (c *Catalog) Lookup(resource ResourceType, action Action) (string, bool) {
	if c == nil {
		return "", false
	}
	key, ok := c.byGuard[guardKey{resource: resource, action: NormalizeAction(action)}]
	return key, ok
}

// Get returns the permission with the given key.
func (c *Catalog) Get(key string) (Permission, bool) {
	if c == nil {
		return Permission{}, false
	}
	p, ok := c.byKey[key]
	return p, ok
}

// Contains reports whether key names a catalog permission.
func (c *Catalog) Contains(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// ListAll returns every permission in definition order.
func (c *Catalog) ListAll() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.ordered))
	for i, p := range c.ordered {
		out[i] = Entry{Key: p.Key, DisplayName: p.DisplayName}
	}
	return out
}
