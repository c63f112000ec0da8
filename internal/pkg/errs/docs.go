// Package errs provides the typed errors shared by every layer of the fulfillment service.
//
// Each error type pairs a sentinel (ErrValueIsRequired, ErrObjectNotFound, ...) with a
// struct carrying the offending parameter and an optional cause. The struct's Unwrap
// returns the sentinel, which lets the HTTP adapter map whole error classes to status
// codes with errors.Is while domain code keeps precise messages:
//
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    return ctx.JSON(http.StatusNotFound, ...)
//	}
package errs
