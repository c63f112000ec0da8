package services_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courierAt(t *testing.T, name string, point kernel.GeoPoint) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, "", "Ho Chi Minh", point, testTime, nil)
	require.NoError(t, err)
	return c
}

func TestAvailabilityRanker_RankCouriers(t *testing.T) {
	far := courierAt(t, "Far", northOf(t, origin, 6))
	near := courierAt(t, "Near", northOf(t, origin, 0.5))
	unknown := courierAt(t, "Unknown", kernel.UnknownPoint())
	middle := courierAt(t, "Middle", northOf(t, origin, 2))
	busy := courierAt(t, "Busy", origin)
	require.NoError(t, busy.TakeDelivery(kernel.NewUUID()))

	ranker := services.NewAvailabilityRanker()

	t.Run("nearest idle couriers first, unknown positions last", func(t *testing.T) {
		ranked := ranker.RankCouriers(origin, []*courier.Courier{unknown, far, busy, near, middle}, 0)

		require.Len(t, ranked, 4)
		assert.Equal(t, []string{"Near", "Middle", "Far", "Unknown"}, names(ranked))
		assert.InDelta(t, 0.5, ranked[0].DistanceKm, 0.001)
		assert.InDelta(t, -1, ranked[3].DistanceKm, 0)
	})

	t.Run("limit", func(t *testing.T) {
		ranked := ranker.RankCouriers(origin, []*courier.Courier{far, near, middle}, 2)

		assert.Equal(t, []string{"Near", "Middle"}, names(ranked))
	})

	t.Run("unknown origin keeps input order", func(t *testing.T) {
		ranked := ranker.RankCouriers(kernel.UnknownPoint(), []*courier.Courier{far, near, middle}, 0)

		assert.Equal(t, []string{"Far", "Near", "Middle"}, names(ranked))
	})

	t.Run("no couriers", func(t *testing.T) {
		assert.Empty(t, ranker.RankCouriers(origin, nil, 3))
	})
}

func names(ranked []services.Ranked[*courier.Courier]) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Value.Name())
	}
	return out
}
