package commands

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var ErrResyncAvailabilityCommandIsNotConstructed = errors.New(
	"ResyncAvailabilityCommand must be created via NewResyncAvailabilityCommand constructor",
)

// ResyncAvailabilityCommand reconciles the availability board with storage. It runs at
// start-up and periodically.
type ResyncAvailabilityCommand struct {
	guard guard.ConstructorGuard
}

func NewResyncAvailabilityCommand() ResyncAvailabilityCommand {
	return ResyncAvailabilityCommand{guard: guard.NewConstructorGuard()}
}

func (c *ResyncAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrResyncAvailabilityCommandIsNotConstructed)
}
