package commands

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var ErrRebuildRevenueCommandIsNotConstructed = errors.New(
	"RebuildRevenueCommand must be created via NewRebuildRevenueCommand constructor",
)

// RebuildRevenueCommand replays the full delivered history into the revenue projection.
type RebuildRevenueCommand struct {
	guard guard.ConstructorGuard
}

func NewRebuildRevenueCommand() RebuildRevenueCommand {
	return RebuildRevenueCommand{guard: guard.NewConstructorGuard()}
}

func (c *RebuildRevenueCommand) Validate() error {
	return c.guard.Validate(ErrRebuildRevenueCommandIsNotConstructed)
}
