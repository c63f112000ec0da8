// Package kernel holds the value objects shared by every aggregate of the fulfillment
// domain: UUID identifiers, GeoPoint coordinates with Haversine distance, and Money
// amounts in minor currency units. All of them are immutable and safe for concurrent use.
package kernel
