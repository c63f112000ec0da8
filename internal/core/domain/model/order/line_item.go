package order

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// MaxNoteLength bounds the free-text note a customer may attach to a cart line.
const MaxNoteLength = 500

// LineItem is an ordered item with the name and price captured at checkout.
type LineItem struct {
	itemID    kernel.UUID
	name      string
	unitPrice kernel.Money
	quantity  int
	note      string
}

func NewLineItem(itemID kernel.UUID, name string, unitPrice kernel.Money, quantity int, note string) (LineItem, error) {
	note = strings.TrimSpace(note)

	var errList []error
	if err := itemID.Validate(); err != nil {
		errList = append(errList, err)
	}
	if strings.TrimSpace(name) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("name"))
	}
	if unitPrice < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("price", fmt.Errorf("%d is negative", unitPrice)))
	}
	if quantity < 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, "unbounded"))
	}
	if len(note) > MaxNoteLength {
		errList = append(errList, errs.NewValueIsOutOfRangeError("note length", len(note), 0, MaxNoteLength))
	}
	if err := errors.Join(errList...); err != nil {
		return LineItem{}, err
	}

	return LineItem{itemID: itemID, name: name, unitPrice: unitPrice, quantity: quantity, note: note}, nil
}

func (l LineItem) ItemID() kernel.UUID {
	return l.itemID
}

func (l LineItem) Name() string {
	return l.name
}

func (l LineItem) UnitPrice() kernel.Money {
	return l.unitPrice
}

func (l LineItem) Quantity() int {
	return l.quantity
}

func (l LineItem) Note() string {
	return l.note
}

// Total is unit price times quantity.
func (l LineItem) Total() kernel.Money {
	return l.unitPrice * kernel.Money(l.quantity)
}
