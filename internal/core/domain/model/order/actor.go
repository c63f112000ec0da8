package order

import (
	"fmt"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// Role is the kind of party acting on an order.
type Role int

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleShopOwner
	RoleCourier
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleCustomer:  "customer",
	RoleShopOwner: "owner",
	RoleCourier:   "deliveryBoy",
	RoleAdmin:     "admin",
}

var ErrActorIsNotConstructed = errs.NewValueIsRequiredError("actor must be created via NewActor")

// ParseRole maps the role claim of an access token to a Role. "user" and "shop_owner"
// are accepted as aliases.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user":
		return RoleCustomer, nil
	case "owner", "shop_owner", "shopowner":
		return RoleShopOwner, nil
	case "deliveryboy", "courier":
		return RoleCourier, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleUnknown, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", s))
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Actor identifies the caller of a state-changing operation.
type Actor struct {
	role  Role
	id    kernel.UUID
	guard guard.ConstructorGuard
}

func NewActor(role Role, id kernel.UUID) (Actor, error) {
	if _, ok := roleNames[role]; !ok {
		return Actor{}, errs.NewValueIsInvalidError("role")
	}
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{role: role, id: id, guard: guard.NewConstructorGuard()}, nil
}

func (a Actor) Validate() error {
	return a.guard.Validate(ErrActorIsNotConstructed)
}

func (a Actor) Role() Role {
	return a.role
}

func (a Actor) ID() kernel.UUID {
	return a.id
}

func (a Actor) Is(role Role, id kernel.UUID) bool {
	return a.role == role && a.id.IsEqual(id)
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.role, a.id)
}

func containsRole(roles []Role, r Role) bool {
	return slices.Contains(roles, r)
}
