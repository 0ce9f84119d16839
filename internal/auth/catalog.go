package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Action names one operation a permission can grant on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// catalog is the static table of every resource/action combination the API
// recognizes. Loaded once, immutable for the process lifetime. Resource keys
// may themselves be namespaced with a colon (maintenance:configuration), so
// permission strings split on the last colon.
var catalog = map[string][]Action{
	"cell":                    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"client":                  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"user":                    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"company_code":            {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"site":                    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"machine_group":           {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"station":                 {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"erp_group":               {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"unit":                    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"workplan":                {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"workplan_type":           {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"workstep":                {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"assign_station":          {ActionCreate, ActionRead, ActionDelete},
	"part_group":              {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"part_master":             {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"part_type":               {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"part_group_type":         {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"workorder":               {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"booking":                 {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"failure_type":            {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"failure_group_type":      {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"measurement_data":        {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"machine_condition_group": {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"machine_condition":       {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"machine_condition_data":  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"bom":                     {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"bom_header":              {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"bom_item":                {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"line":                    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"iiot_sensor_data":        {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"active_workorder":        {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"maintenance:configuration": {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"maintenance:localStorage":  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"task":   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	"report": {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
}

// defaultUserPermissions is the read-only starter set granted to a plain user
// created without an explicit permission list.
var defaultUserPermissions = []string{
	"user:read",
	"workplan:read",
	"workorder:read",
	"booking:read",
	"task:read",
	"report:read",
}

// Permission is a validated resource/action pair. The zero value is not a
// usable permission; construct through ParsePermission or MustPermission.
type Permission struct {
	Resource string
	Action   Action
}

func (p Permission) String() string {
	return p.Resource + ":" + string(p.Action)
}

// ParsePermission validates a "resource:action" string against the catalog.
// The resource part may contain colons; the action is everything after the
// last colon.
func ParsePermission(s string) (Permission, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Permission{}, fmt.Errorf("%w: malformed permission %q", ErrInvalidInput, s)
	}
	resource, action := s[:idx], Action(s[idx+1:])
	actions, ok := catalog[resource]
	if !ok {
		return Permission{}, fmt.Errorf("%w: unknown resource %q", ErrInvalidInput, resource)
	}
	for _, a := range actions {
		if a == action {
			return Permission{Resource: resource, Action: action}, nil
		}
	}
	return Permission{}, fmt.Errorf("%w: action %q not allowed for resource %q", ErrInvalidInput, action, resource)
}

// MustPermission is for compile-time-known permission strings used by
// handlers; it panics on a typo rather than silently failing every check.
func MustPermission(s string) Permission {
	p, err := ParsePermission(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsValid reports whether s names a catalog permission.
func IsValid(s string) bool {
	_, err := ParsePermission(s)
	return err == nil
}

// ActionsFor returns the catalog actions for a resource, empty if unknown.
func ActionsFor(resource string) []Action {
	actions, ok := catalog[resource]
	if !ok {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Resources returns the catalog resource keys in sorted order.
func Resources() []string {
	out := make([]string, 0, len(catalog))
	for resource := range catalog {
		out = append(out, resource)
	}
	sort.Strings(out)
	return out
}

// AllPermissions expands the full catalog into permission strings in a
// deterministic order. Used to grant a bootstrap admin everything.
func AllPermissions() []string {
	var out []string
	for _, resource := range Resources() {
		for _, action := range catalog[resource] {
			out = append(out, resource+":"+string(action))
		}
	}
	return out
}

// DefaultPermissions returns the starter permission set for a role.
func DefaultPermissions(role string) []string {
	if role == RoleAdmin {
		return AllPermissions()
	}
	out := make([]string, len(defaultUserPermissions))
	copy(out, defaultUserPermissions)
	return out
}

// ValidatePermissions checks every entry against the catalog and returns the
// trimmed, deduplicated list.
func ValidatePermissions(perms []string) ([]string, error) {
	if len(perms) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, raw := range perms {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := ParsePermission(raw); err != nil {
			return nil, err
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}
	return out, nil
}
