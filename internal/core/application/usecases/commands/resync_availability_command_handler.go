package commands

import (
	"context"

	"fulfillment/internal/pkg/errs"
)

// AvailabilityResyncer is implemented by *dispatch.Dispatcher.
type AvailabilityResyncer interface {
	Resync(ctx context.Context) (added, removed int, err error)
}

// ResyncResult counts the board entries a resync published and withdrew.
type ResyncResult struct {
	Added   int
	Removed int
}

type ResyncAvailabilityCommandHandler struct {
	board AvailabilityResyncer
}

func NewResyncAvailabilityCommandHandler(board AvailabilityResyncer) (*ResyncAvailabilityCommandHandler, error) {
	if board == nil {
		return nil, errs.NewValueIsRequiredError("board")
	}
	return &ResyncAvailabilityCommandHandler{board: board}, nil
}

func (h *ResyncAvailabilityCommandHandler) Handle(ctx context.Context, cmd ResyncAvailabilityCommand) (ResyncResult, error) {
	if err := cmd.Validate(); err != nil {
		return ResyncResult{}, err
	}

	added, removed, err := h.board.Resync(ctx)
	return ResyncResult{Added: added, Removed: removed}, err
}
