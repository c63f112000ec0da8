package services

import (
	"cmp"
	"math"
	"slices"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
)

// Ranked pairs a value with its distance from the reference point. DistanceKm is -1 when
// either side has no known position.
type Ranked[T any] struct {
	Value      T
	DistanceKm float64
}

// AvailabilityRanker orders couriers and deliveries nearest first. It is the only
// matching the dispatcher does: candidates are broadcast, not assigned.
//
// Business rules:
//   - known distances sort ascending
//   - candidates with an unknown position follow, in their input order
//   - ties keep input order
type AvailabilityRanker struct{}

func NewAvailabilityRanker() AvailabilityRanker {
	return AvailabilityRanker{}
}

// RankCouriers returns idle couriers nearest to origin first, at most limit of them
// (limit <= 0 means all). Busy or unconstructed couriers are skipped.
func (r AvailabilityRanker) RankCouriers(origin kernel.GeoPoint, couriers []*courier.Courier, limit int) []Ranked[*courier.Courier] {
	idle := make([]*courier.Courier, 0, len(couriers))
	for _, c := range couriers {
		if c.Validate() != nil || c.IsBusy() {
			continue
		}
		idle = append(idle, c)
	}

	ranked := RankByDistance(origin, idle, (*courier.Courier).LastPoint)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RankByDistance sorts values by distance from origin using pointOf to locate them.
func RankByDistance[T any](origin kernel.GeoPoint, values []T, pointOf func(T) kernel.GeoPoint) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(values))
	for _, v := range values {
		distance := -1.0
		if p := pointOf(v); origin.IsKnown() && p.IsKnown() {
			distance = origin.DistanceKm(p)
		}
		ranked = append(ranked, Ranked[T]{Value: v, DistanceKm: distance})
	}

	slices.SortStableFunc(ranked, func(a, b Ranked[T]) int {
		return cmp.Compare(sortKey(a.DistanceKm), sortKey(b.DistanceKm))
	})
	return ranked
}

func sortKey(distance float64) float64 {
	if distance < 0 {
		return math.Inf(1)
	}
	return distance
}
