package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrVerifyDeliveryOtpCommandIsNotConstructed = errors.New(
	"VerifyDeliveryOtpCommand must be created via NewVerifyDeliveryOtpCommand constructor",
)

// VerifyDeliveryOtpCommand is the courier presenting the code the customer read out at
// hand-off. Surrounding whitespace is trimmed; nothing else is normalized.
type VerifyDeliveryOtpCommand struct { //nolint:recvcheck //using for validation
	courier     order.Actor
	orderID     kernel.UUID
	shopOrderID kernel.UUID
	code        string

	guard guard.ConstructorGuard
}

func NewVerifyDeliveryOtpCommand(
	actor order.Actor,
	orderID, shopOrderID kernel.UUID,
	code string,
) (VerifyDeliveryOtpCommand, error) {
	if err := errors.Join(actor.Validate(), orderID.Validate(), shopOrderID.Validate()); err != nil {
		return VerifyDeliveryOtpCommand{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return VerifyDeliveryOtpCommand{}, errs.NewValueIsRequiredError("otp")
	}

	return VerifyDeliveryOtpCommand{
		courier:     actor,
		orderID:     orderID,
		shopOrderID: shopOrderID,
		code:        code,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c VerifyDeliveryOtpCommand) Validate() error {
	return c.guard.Validate(ErrVerifyDeliveryOtpCommandIsNotConstructed)
}

func (c VerifyDeliveryOtpCommand) Courier() order.Actor {
	return c.courier
}

func (c VerifyDeliveryOtpCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c VerifyDeliveryOtpCommand) ShopOrderID() kernel.UUID {
	return c.shopOrderID
}

func (c VerifyDeliveryOtpCommand) Code() string {
	return c.code
}
