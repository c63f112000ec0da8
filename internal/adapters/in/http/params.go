package http

import (
	"time"

	"fulfillment/internal/core/application/revenue"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func pathUUID(c echo.Context, name string) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return kernel.UUIDFromGoogle(id)
}

// queryParam binds an optional query parameter. It reports false when the parameter
// is absent. Presence is checked here, so the binder sees a required value and can
// fill a plain T.
func queryParam[T any](c echo.Context, name string) (T, bool, error) {
	var value T
	if !c.QueryParams().Has(name) {
		return value, false, nil
	}
	if err := runtime.BindQueryParameter("form", true, true, name, c.QueryParams(), &value); err != nil {
		return value, false, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return value, true, nil
}

// dateRange reads the from and to days of a query. It returns nil when neither is set.
func dateRange(c echo.Context) (*revenue.DateRange, error) {
	from, hasFrom, err := queryParam[openapi_types.Date](c, "from")
	if err != nil {
		return nil, err
	}
	to, hasTo, err := queryParam[openapi_types.Date](c, "to")
	if err != nil {
		return nil, err
	}
	if !hasFrom && !hasTo {
		return nil, nil
	}

	var r revenue.DateRange
	if hasFrom {
		r.From = day(from)
	}
	if hasTo {
		r.To = day(to)
	}
	return &r, nil
}

func day(d openapi_types.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
