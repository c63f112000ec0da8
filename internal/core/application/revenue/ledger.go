package revenue

import (
	"time"

	"fulfillment/internal/core/domain/model/events"
)

// dayKey is a calendar day in the projection's time zone, encoded as yyyymmdd so that
// numeric order is calendar order.
type dayKey int

func dayOf(t time.Time, loc *time.Location) dayKey {
	y, m, d := t.In(loc).Date()
	return dayKey(y*10000 + int(m)*100 + d)
}

type bucket struct {
	count    int
	subtotal int64
	fees     int64
}

func (b *bucket) add(e events.Delivered) {
	b.count++
	b.subtotal += e.Subtotal
	b.fees += e.DeliveryFee
}

func (b *bucket) merge(o bucket) {
	b.count += o.count
	b.subtotal += o.subtotal
	b.fees += o.fees
}

// ledger keeps one bucket per calendar day plus the running total.
type ledger struct {
	days  map[dayKey]bucket
	total bucket
}

func newLedger() *ledger {
	return &ledger{days: make(map[dayKey]bucket)}
}

func (l *ledger) add(day dayKey, e events.Delivered) {
	b := l.days[day]
	b.add(e)
	l.days[day] = b
	l.total.add(e)
}

// between sums the days in [from, to].
func (l *ledger) between(from, to dayKey) bucket {
	var sum bucket
	for day, b := range l.days {
		if day >= from && day <= to {
			sum.merge(b)
		}
	}
	return sum
}
