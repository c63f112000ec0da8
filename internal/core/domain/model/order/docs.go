// Package order models a customer checkout and its per-shop fulfillment units.
//
// The package includes:
//   - Order: the aggregate root created at checkout; owns one ShopOrder per shop in the cart
//   - ShopOrder: the unit of status transition, courier claim and delivery-code hand-off
//   - Status: the closed set of ShopOrder states and the table of legal transitions
//   - Actor/Role: who is asking for a change (customer, shop owner, courier, admin)
//
// Key business rules:
//   - Order.TotalAmount always equals the sum of ShopOrder subtotals and delivery fees
//   - Status flows pending -> preparing -> out of delivery -> delivered; cancelled is
//     reachable from pending and preparing only
//   - A ShopOrder carries a courier only while out of delivery or delivered
//   - Delivered is reachable only by the assigned courier presenting the delivery code
//   - Re-submitting the current status is a no-op, any other unlisted move fails
//
// Only a handful of methods mutate state, and each of them either applies the whole
// change or returns an error leaving the ShopOrder untouched.
package order
