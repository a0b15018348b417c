package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// modelText is an RBAC model matching request paths with keyMatch2
// patterns such as /api/v1/clients/:id.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// DefaultPolicies grants admins everything and viewers read access to clients.
var DefaultPolicies = [][]string{
	{"p", "admin", "/api/v1/*", "*"},
	{"p", "viewer", "/api/v1/clients", "GET"},
	{"p", "viewer", "/api/v1/clients/:id", "GET"},
}

// Enforcer decides whether a role may call a route.
type Enforcer struct {
	e *casbin.Enforcer
}

// NewEnforcer builds an in-memory enforcer. Each policy line is
// "p, sub, obj, act" or "g, user, role".
func NewEnforcer(policies [][]string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("casbin: failed to load model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin: failed to create enforcer: %w", err)
	}
	for _, p := range policies {
		if len(p) < 2 {
			return nil, fmt.Errorf("casbin: malformed policy %v", p)
		}
		rule := make([]interface{}, 0, len(p)-1)
		for _, v := range p[1:] {
			rule = append(rule, v)
		}
		switch p[0] {
		case "p":
			_, err = e.AddPolicy(rule...)
		case "g":
			_, err = e.AddGroupingPolicy(rule...)
		default:
			err = fmt.Errorf("unknown policy type %q", p[0])
		}
		if err != nil {
			return nil, fmt.Errorf("casbin: failed to add policy %v: %w", p, err)
		}
	}
	return &Enforcer{e: e}, nil
}

// Allowed reports whether role may perform method on path.
func (en *Enforcer) Allowed(role, path, method string) (bool, error) {
	return en.e.Enforce(role, path, method)
}
