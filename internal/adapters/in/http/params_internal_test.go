package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryContext(rawQuery string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/deliveries/available?"+rawQuery, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestQueryParamBindsPresentValues(t *testing.T) {
	c := queryContext("lat=21.03&limit=20&city=Ha+Noi&from=2026-03-01")

	lat, ok, err := queryParam[float64](c, "lat")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 21.03, lat, 1e-9)

	limit, ok, err := queryParam[int](c, "limit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, limit)

	city, ok, err := queryParam[string](c, "city")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ha Noi", city)

	from, ok, err := queryParam[openapi_types.Date](c, "from")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), day(from))
}

func TestQueryParamAbsent(t *testing.T) {
	lon, ok, err := queryParam[float64](queryContext("lat=21.03"), "lon")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, lon)
}

func TestQueryParamMalformed(t *testing.T) {
	_, _, err := queryParam[int](queryContext("limit=many"), "limit")

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestDateRange(t *testing.T) {
	r, err := dateRange(queryContext(""))
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = dateRange(queryContext("to=2026-03-10"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.From.IsZero())
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), r.To)
}
