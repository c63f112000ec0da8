// Package revenue is the read-side projection of delivered ShopOrders: overall totals,
// rolling windows, top sellers, courier earnings and shop revenue.
//
// The projection is never the system of record. It is rebuilt from the delivered
// history on start and on a schedule, and it ingests each delivery exactly once no
// matter how often the event is replayed.
package revenue

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/ports"
)

// DefaultTopItems is how many top sellers Summary reports.
const DefaultTopItems = 10

// Window is the activity of one period. Amount is what the period is about: items plus
// fees for overall and shop figures, fees alone for courier earnings.
type Window struct {
	Count       int   `json:"count"`
	Amount      int64 `json:"amount"`
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"deliveryFee"`
}

// ItemSales is one line of the top sellers table.
type ItemSales struct {
	ItemID  string `json:"itemId"`
	Name    string `json:"name"`
	Sold    int    `json:"sold"`
	Revenue int64  `json:"revenue"`
}

type Summary struct {
	Total    Window      `json:"total"`
	Today    Window      `json:"today"`
	Week     Window      `json:"week"`
	Month    Window      `json:"month"`
	TopItems []ItemSales `json:"topItems"`
}

// Earnings are a courier's delivery fees. Range is filled for range queries only.
type Earnings struct {
	CourierID string  `json:"courierId"`
	Today     Window  `json:"today"`
	Month     Window  `json:"month"`
	Total     Window  `json:"total"`
	Range     *Window `json:"range,omitempty"`
}

// ShopRevenue is what a shop took in, items plus delivery fees.
type ShopRevenue struct {
	ShopID string  `json:"shopId"`
	Today  Window  `json:"today"`
	Month  Window  `json:"month"`
	Total  Window  `json:"total"`
	Range  *Window `json:"range,omitempty"`
}

// DateRange is an inclusive range of calendar days in the projection's time zone.
// A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

type state struct {
	seen     map[string]struct{}
	overall  *ledger
	couriers map[string]*ledger
	shops    map[string]*ledger
	items    map[string]*ItemSales
}

func newState() *state {
	return &state{
		seen:     make(map[string]struct{}),
		overall:  newLedger(),
		couriers: make(map[string]*ledger),
		shops:    make(map[string]*ledger),
		items:    make(map[string]*ItemSales),
	}
}

// Projection aggregates delivered events. It is safe for concurrent use.
type Projection struct {
	mu      sync.RWMutex
	loc     *time.Location
	clock   ports.Clock
	logger  *slog.Logger
	state   *state
	pending []events.Delivered
}

// NewProjection computes windows in loc (UTC when nil); weeks start on Monday.
func NewProjection(loc *time.Location, clock ports.Clock, logger *slog.Logger) *Projection {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Projection{
		loc:    loc,
		clock:  clock,
		logger: logger.With("component", "revenue"),
		state:  newState(),
	}
}

// Publish lets the projection sit behind the fan-out publisher. It ingests Delivered
// events and ignores the rest.
func (p *Projection) Publish(ctx context.Context, evts ...events.Event) error {
	for _, e := range evts {
		if delivered, ok := e.(events.Delivered); ok {
			if !p.Ingest(delivered) {
				p.logger.DebugContext(ctx, "delivery already ingested", "shopOrderId", delivered.ShopOrderID)
			}
		}
	}
	return nil
}

// Ingest adds one delivery. It reports false when the ShopOrder was already ingested.
func (p *Projection) Ingest(e events.Delivered) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.apply(p.state, e) {
		return false
	}
	p.pending = append(p.pending, e)
	return true
}

// Rebuild recomputes every aggregate from the full delivered history. Deliveries
// ingested since the previous rebuild are merged in, which covers those committed while
// the history was being read; afterwards only later ingests are remembered.
func (p *Projection) Rebuild(history []events.Delivered) int {
	next := newState()
	for _, e := range history {
		p.apply(next, e)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.pending {
		p.apply(next, e)
	}
	p.state = next
	p.pending = nil
	return len(next.seen)
}

// Len is the number of deliveries ingested.
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.state.seen)
}

// Summary reports overall revenue, the rolling windows and the top sellers.
func (p *Projection) Summary(topItems int) Summary {
	if topItems <= 0 {
		topItems = DefaultTopItems
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	today, week, month := p.windows()
	overall := p.state.overall
	summary := Summary{
		Total: shopWindow(overall.total),
		Today: shopWindow(overall.between(today, today)),
		Week:  shopWindow(overall.between(week, today)),
		Month: shopWindow(overall.between(month, today)),
	}

	items := make([]ItemSales, 0, len(p.state.items))
	for _, item := range p.state.items {
		items = append(items, *item)
	}
	slices.SortFunc(items, func(a, b ItemSales) int {
		return cmp.Or(
			cmp.Compare(b.Sold, a.Sold),
			cmp.Compare(b.Revenue, a.Revenue),
			cmp.Compare(a.Name, b.Name),
		)
	})
	if len(items) > topItems {
		items = items[:topItems]
	}
	summary.TopItems = items
	return summary
}

// CourierEarnings reports the delivery fees courierID earned.
func (p *Projection) CourierEarnings(courierID string, r *DateRange) Earnings {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := Earnings{CourierID: courierID}
	l, ok := p.state.couriers[courierID]
	if !ok {
		l = newLedger()
	}
	today, _, month := p.windows()
	out.Today = courierWindow(l.between(today, today))
	out.Month = courierWindow(l.between(month, today))
	out.Total = courierWindow(l.total)
	if r != nil {
		from, to := p.rangeKeys(*r)
		w := courierWindow(l.between(from, to))
		out.Range = &w
	}
	return out
}

// ShopRevenue reports what shopID took in.
func (p *Projection) ShopRevenue(shopID string, r *DateRange) ShopRevenue {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := ShopRevenue{ShopID: shopID}
	l, ok := p.state.shops[shopID]
	if !ok {
		l = newLedger()
	}
	today, _, month := p.windows()
	out.Today = shopWindow(l.between(today, today))
	out.Month = shopWindow(l.between(month, today))
	out.Total = shopWindow(l.total)
	if r != nil {
		from, to := p.rangeKeys(*r)
		w := shopWindow(l.between(from, to))
		out.Range = &w
	}
	return out
}

func (p *Projection) apply(s *state, e events.Delivered) bool {
	if _, dup := s.seen[e.ShopOrderID]; dup {
		return false
	}
	s.seen[e.ShopOrderID] = struct{}{}

	day := dayOf(e.At, p.loc)
	s.overall.add(day, e)
	ledgerFor(s.couriers, e.CourierID).add(day, e)
	ledgerFor(s.shops, e.ShopID).add(day, e)

	for _, line := range e.Items {
		item, ok := s.items[line.ItemID]
		if !ok {
			item = &ItemSales{ItemID: line.ItemID, Name: line.Name}
			s.items[line.ItemID] = item
		}
		item.Sold += line.Quantity
		item.Revenue += line.UnitPrice * int64(line.Quantity)
	}
	return true
}

// windows returns the first day of today, this week (Monday) and this month.
func (p *Projection) windows() (today, week, month dayKey) {
	now := p.clock.Now().In(p.loc)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, p.loc)
	sinceMonday := (int(midnight.Weekday()) + 6) % 7

	today = dayOf(midnight, p.loc)
	week = dayOf(midnight.AddDate(0, 0, -sinceMonday), p.loc)
	month = dayOf(time.Date(y, m, 1, 0, 0, 0, 0, p.loc), p.loc)
	return today, week, month
}

func (p *Projection) rangeKeys(r DateRange) (from, to dayKey) {
	from, to = dayKey(0), dayKey(99991231)
	if !r.From.IsZero() {
		from = dayOf(r.From, p.loc)
	}
	if !r.To.IsZero() {
		to = dayOf(r.To, p.loc)
	}
	return from, to
}

func ledgerFor(ledgers map[string]*ledger, id string) *ledger {
	l, ok := ledgers[id]
	if !ok {
		l = newLedger()
		ledgers[id] = l
	}
	return l
}

func shopWindow(b bucket) Window {
	return Window{Count: b.count, Amount: b.subtotal + b.fees, Subtotal: b.subtotal, DeliveryFee: b.fees}
}

func courierWindow(b bucket) Window {
	return Window{Count: b.count, Amount: b.fees, Subtotal: b.subtotal, DeliveryFee: b.fees}
}
