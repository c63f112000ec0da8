package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateCourierCommandIsNotConstructed = errors.New(
	"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
)

// CreateCourierCommand registers a courier with the city whose delivery pool they join.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand(accountID, "Nguyen Van An", "+84 90 123 4567", "Ho Chi Minh")
//	if err != nil {
//	    return fmt.Errorf("invalid courier data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	name      string
	phone     string
	city      string

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand validates the profile. The id is the courier's account id,
// the subject of their access tokens.
func NewCreateCourierCommand(courierID kernel.UUID, name, phone, city string) (CreateCourierCommand, error) {
	if _, err := courier.NewCourier(courierID, name, phone, city); err != nil {
		return CreateCourierCommand{}, err
	}

	return CreateCourierCommand{
		courierID: courierID,
		name:      name,
		phone:     phone,
		city:      city,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c CreateCourierCommand) Name() string {
	return c.name
}

func (c CreateCourierCommand) Phone() string {
	return c.phone
}

func (c CreateCourierCommand) City() string {
	return c.city
}
