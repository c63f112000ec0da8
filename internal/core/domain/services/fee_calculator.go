package services

import (
	"errors"
	"math"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// FeeCalculator prices a delivery: the base fee covers the first FreeKm kilometres and
// every started kilometre beyond that adds PerKm.
//
// Business rules:
//   - fee = base when distance <= freeKm
//   - fee = base + ceil(distance - freeKm) * perKm otherwise
//   - an unknown point on either side prices as distance 0, so checkout never fails on geocoding
//
// Example usage:
//
//	calc, _ := services.NewFeeCalculator(15000, 5000, 3)
//	fee := calc.Fee(shop.Point, address.Point) // 20000 for a 4 km trip
type FeeCalculator struct {
	base   kernel.Money
	perKm  kernel.Money
	freeKm float64
}

func NewFeeCalculator(base, perKm kernel.Money, freeKm float64) (FeeCalculator, error) {
	var errList []error
	if base < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("base fee", base, 0, "unbounded"))
	}
	if perKm < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("per km fee", perKm, 0, "unbounded"))
	}
	if freeKm < 0 || math.IsNaN(freeKm) {
		errList = append(errList, errs.NewValueIsOutOfRangeError("free distance", freeKm, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return FeeCalculator{}, err
	}
	return FeeCalculator{base: base, perKm: perKm, freeKm: freeKm}, nil
}

func (c FeeCalculator) Base() kernel.Money {
	return c.base
}

// Fee returns the delivery fee between origin and destination.
func (c FeeCalculator) Fee(origin, destination kernel.GeoPoint) kernel.Money {
	return c.FeeForDistance(origin.DistanceKm(destination))
}

// FeeForDistance prices a trip of distanceKm kilometres. Negative or NaN distances price
// as zero.
func (c FeeCalculator) FeeForDistance(distanceKm float64) kernel.Money {
	if math.IsNaN(distanceKm) || distanceKm <= c.freeKm {
		return c.base
	}
	extraKm := math.Ceil(distanceKm - c.freeKm)
	return c.base + kernel.Money(extraKm)*c.perKm
}
