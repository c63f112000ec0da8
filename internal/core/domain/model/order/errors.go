package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

// Sentinels for the domain error classes. The HTTP adapter maps them to status codes.
var (
	ErrInvalidCart       = errors.New("invalid cart")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrClaimConflict     = errors.New("delivery is no longer available")
	ErrInvalidOtp        = errors.New("invalid delivery code")
	ErrForbidden         = errors.New("action is not allowed")
	ErrOtpAlreadyIssued  = errors.New("delivery code already issued")
)

// InvalidCartError rejects a checkout before anything is persisted.
type InvalidCartError struct {
	Reason string
}

func NewInvalidCartError(format string, args ...any) *InvalidCartError {
	return &InvalidCartError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidCartError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCart, e.Reason)
}

func (e *InvalidCartError) Unwrap() error {
	return ErrInvalidCart
}

// IllegalTransitionError names the attempted from/to pair.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func NewIllegalTransitionError(from, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// ClaimConflictError tells a courier that someone else got the delivery first, or that it
// stopped being claimable. Callers refresh their list; they never retry blindly.
type ClaimConflictError struct {
	ShopOrderID kernel.UUID
	Reason      string
}

func NewClaimConflictError(shopOrderID kernel.UUID, reason string) *ClaimConflictError {
	return &ClaimConflictError{ShopOrderID: shopOrderID, Reason: reason}
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("%s: shop order %s (%s)", ErrClaimConflict, e.ShopOrderID, e.Reason)
}

func (e *ClaimConflictError) Unwrap() error {
	return ErrClaimConflict
}

// InvalidOtpError is returned for a wrong code or a ShopOrder that no longer awaits one.
type InvalidOtpError struct {
	Reason string
}

func NewInvalidOtpError(reason string) *InvalidOtpError {
	return &InvalidOtpError{Reason: reason}
}

func (e *InvalidOtpError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidOtp, e.Reason)
}

func (e *InvalidOtpError) Unwrap() error {
	return ErrInvalidOtp
}

// ForbiddenError is returned when the actor's role or identity does not permit the action.
type ForbiddenError struct {
	Role   Role
	Action string
}

func NewForbiddenError(role Role, action string) *ForbiddenError {
	return &ForbiddenError{Role: role, Action: action}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: %s may not %s", ErrForbidden, e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
