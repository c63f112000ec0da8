package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of a ShopOrder.
type Status int

const (
	// Unknown is the zero value and never a valid state.
	Unknown Status = iota
	Pending
	Preparing
	OutOfDelivery
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	Pending:       "pending",
	Preparing:     "preparing",
	OutOfDelivery: "out of delivery",
	Delivered:     "delivered",
	Cancelled:     "cancelled",
}

type transition struct {
	from Status
	to   Status
}

// transitions lists every legal move and the roles allowed to request it.
// Anything absent from this table is illegal.
var transitions = map[transition][]Role{
	{Pending, Preparing}:       {RoleShopOwner},
	{Pending, Cancelled}:       {RoleCustomer, RoleShopOwner},
	{Preparing, OutOfDelivery}: {RoleShopOwner},
	{Preparing, Cancelled}:     {RoleCustomer, RoleShopOwner},
	{OutOfDelivery, Delivered}: {RoleCourier},
}

// ParseStatus accepts the wire names ("out of delivery") as well as
// underscore/hyphen variants ("out_of_delivery").
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	for status, name := range statusNames {
		if name == normalized {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanHaveCourier reports whether a ShopOrder in status s may carry an assigned courier.
func (s Status) CanHaveCourier() bool {
	return s == OutOfDelivery || s == Delivered
}

// CanTransitionTo reports whether s -> to appears in the transition table.
func (s Status) CanTransitionTo(to Status) bool {
	_, ok := transitions[transition{from: s, to: to}]
	return ok
}

// allowedRoles returns the roles permitted to move s -> to, or false if the move is illegal.
func (s Status) allowedRoles(to Status) ([]Role, bool) {
	roles, ok := transitions[transition{from: s, to: to}]
	return roles, ok
}

// rolesInto returns every role that may move any state into to. Used to authorize
// idempotent re-submissions.
func rolesInto(to Status) []Role {
	var roles []Role
	for t, allowed := range transitions {
		if t.to != to {
			continue
		}
		for _, r := range allowed {
			if !containsRole(roles, r) {
				roles = append(roles, r)
			}
		}
	}
	return roles
}
