package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// transitioner runs one status transition of one ShopOrder under its lock. It is shared
// by the status and cancel handlers so both follow the same side-effect rules:
//   - entering out of delivery mints the delivery code and publishes the delivery
//   - entering cancelled withdraws the delivery in case it was ever published
//   - every effective change notifies the parties with statusUpdate
//   - a re-submitted transition changes nothing and publishes nothing
type transitioner struct {
	uowFactory ports.UnitOfWorkFactory
	board      DeliveryBoard
	otp        services.OtpIssuer
	publisher  ports.EventPublisher
	clock      ports.Clock
	logger     *slog.Logger
}

func newTransitioner(
	uowFactory ports.UnitOfWorkFactory,
	board DeliveryBoard,
	otp services.OtpIssuer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *slog.Logger,
) (transitioner, error) {
	if uowFactory == nil {
		return transitioner{}, errs.NewValueIsRequiredError("uowFactory")
	}
	if board == nil {
		return transitioner{}, errs.NewValueIsRequiredError("board")
	}
	if publisher == nil {
		return transitioner{}, errs.NewValueIsRequiredError("publisher")
	}
	if otp.Length() == 0 {
		return transitioner{}, errs.NewValueIsRequiredError("otp issuer")
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return transitioner{
		uowFactory: uowFactory,
		board:      board,
		otp:        otp,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}, nil
}

type pickShopOrder func(o *order.Order) (*order.ShopOrder, error)

// apply loads orderID, picks the ShopOrder and moves it to status to.
func (t transitioner) apply(
	ctx context.Context,
	actor order.Actor,
	orderID kernel.UUID,
	pick pickShopOrder,
	to order.Status,
	reason string,
) (*order.Order, *order.ShopOrder, bool, error) {
	target, err := t.locate(ctx, orderID, pick)
	if err != nil {
		return nil, nil, false, err
	}

	unlock := t.board.LockShopOrder(target)
	defer unlock()

	o, so, changed, err := t.persist(ctx, actor, orderID, target, to, reason)
	if err != nil || !changed {
		return o, so, false, err
	}

	t.logger.InfoContext(ctx, "shop order status changed",
		"orderId", orderID.String(), "shopOrderId", target.String(), "status", to.String(), "actor", actor.String())

	now := t.clock.Now()
	if err := t.publisher.Publish(ctx, events.NewStatusUpdateFor(so, now)); err != nil {
		t.logger.ErrorContext(ctx, "failed to publish status update", "shopOrderId", target.String(), "error", err)
	}

	switch to {
	case order.OutOfDelivery:
		if err := t.board.Publish(ctx, o, so); err != nil {
			t.logger.ErrorContext(ctx, "failed to publish delivery, the next resync will retry",
				"shopOrderId", target.String(), "error", err)
		}
	case order.Cancelled:
		if err := t.board.Withdraw(ctx, so); err != nil {
			t.logger.ErrorContext(ctx, "failed to withdraw delivery", "shopOrderId", target.String(), "error", err)
		}
	}
	return o, so, true, nil
}

// locate resolves the ShopOrder id before its lock is taken.
func (t transitioner) locate(ctx context.Context, orderID kernel.UUID, pick pickShopOrder) (kernel.UUID, error) {
	o, err := t.uowFactory.Create().OrderRepository().Get(ctx, orderID)
	if err != nil {
		return kernel.UUID{}, err
	}
	so, err := pick(o)
	if err != nil {
		return kernel.UUID{}, err
	}
	return so.ID(), nil
}

// persist re-reads the ShopOrder under its lock, applies the transition and saves it.
func (t transitioner) persist(
	ctx context.Context,
	actor order.Actor,
	orderID, shopOrderID kernel.UUID,
	to order.Status,
	reason string,
) (*order.Order, *order.ShopOrder, bool, error) {
	uow := t.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, nil, false, err
	}
	so, err := o.ShopOrder(shopOrderID)
	if err != nil {
		return nil, nil, false, err
	}

	changed, err := so.Transition(actor, to, reason, t.clock.Now())
	if err != nil || !changed {
		return o, so, false, err
	}

	if to == order.OutOfDelivery {
		code, err := t.otp.Issue()
		if err != nil {
			return nil, nil, false, err
		}
		if err := so.IssueOtp(code); err != nil {
			return nil, nil, false, err
		}
	}

	if err := orderRepo.UpdateShopOrder(ctx, so); err != nil {
		return nil, nil, false, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, nil, false, err
	}
	return o, so, true, nil
}
