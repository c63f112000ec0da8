// Package courier provides the Courier aggregate: the delivery person who browses the
// availability board, claims deliveries and completes them with the customer's code.
//
// The package includes:
//   - Courier: identity, operating city, last reported position and the active claim
//
// Key business rules:
//   - A courier must have a valid identifier, a name and an operating city
//   - A courier holds at most one active delivery at a time; batching is not supported
//   - Only the delivery a courier holds can be completed by that courier
package courier
