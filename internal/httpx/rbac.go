package httpx

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
)

// Objects and actions checked by Authorize.
const (
	ObjProducts = "products"
	ObjOrders   = "orders"
	ObjCheckout = "checkout"
	ObjProfile  = "profile"

	ActRead   = "read"
	ActWrite  = "write"
	ActManage = "manage"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{RoleCustomer, ObjProducts, ActRead},
	{RoleCustomer, ObjOrders, ActRead},
	{RoleCustomer, ObjCheckout, ActWrite},
	{RoleCustomer, ObjProfile, ActManage},
	{RoleAdmin, ObjProducts, ActWrite},
	{RoleAdmin, ObjOrders, ActManage},
}

// NewEnforcer builds the role enforcer. Admins inherit every customer permission.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(RoleAdmin, RoleCustomer); err != nil {
		return nil, fmt.Errorf("rbac roles: %w", err)
	}
	return e, nil
}

// Authorize must run after Authenticate.
func Authorize(e *casbin.Enforcer, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			Fail(c, http.StatusUnauthorized, "token required")
			return
		}
		allowed, err := e.Enforce(id.Role, obj, act)
		if err != nil {
			FailErr(c, http.StatusInternalServerError, "authorization check failed", err)
			return
		}
		if !allowed {
			Fail(c, http.StatusForbidden, "access denied")
			return
		}
		c.Next()
	}
}
