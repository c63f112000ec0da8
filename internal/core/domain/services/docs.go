// Package services provides domain services that implement business rules spanning
// more than one aggregate or no aggregate at all.
//
// The package includes:
//   - FeeCalculator: distance-based delivery pricing
//   - OrderSplitter: turns a multi-shop cart into an Order with one ShopOrder per shop
//   - OtpIssuer: mints the numeric delivery code
//   - AvailabilityRanker: orders couriers and deliveries by distance
//
// Every service here is pure: no I/O, no clocks, no shared state.
package services
