package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

func newTestRegistry() *Registry { return NewRegistry(nil) }

func mustCreate(t *testing.T, r *Registry, spec CreateSpec) *models.Order {
	t.Helper()
	o, err := r.Create(spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return o
}

func TestCreateValidation(t *testing.T) {
	r := newTestRegistry()

	cases := []struct {
		name string
		spec CreateSpec
	}{
		{"missing symbol", CreateSpec{Quantity: 1, Side: domain.SideBuy, Params: MarketParams{}}},
		{"zero quantity", CreateSpec{Symbol: "AAPL", Side: domain.SideBuy, Params: MarketParams{}}},
		{"bad side", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: "LONG", Params: MarketParams{}}},
		{"nil params", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideBuy}},
		{"zero stop price", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, Params: StopLossParams{}}},
		{"zero limit price", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, Params: TakeProfitParams{}}},
		{"trailing both set", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, Params: TrailingStopParams{TrailingAmount: 5, TrailingPercent: 0.05}}},
		{"trailing neither set", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, Params: TrailingStopParams{}}},
		{"trailing percent over 1", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, Params: TrailingStopParams{TrailingPercent: 1.5}}},
		{"bad condition op", CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideBuy, Params: MarketParams{}, Conditions: []models.Condition{{Op: "~=", Threshold: 1}}}},
	}
	for _, tc := range cases {
		if _, err := r.Create(tc.spec); !errors.Is(err, ErrInvalidOrderParams) {
			t.Errorf("%s: err = %v, want ErrInvalidOrderParams", tc.name, err)
		}
	}
}

func TestStopLossFillScenario(t *testing.T) {
	r := newTestRegistry()
	stop := mustCreate(t, r, CreateSpec{
		Symbol:   "AAPL",
		Quantity: 10,
		Side:     domain.SideSell,
		UserID:   "u1",
		Params:   StopLossParams{StopPrice: 95},
	})

	for _, px := range []float64{100, 97} {
		r.ProcessMarketUpdate("AAPL", px)
		if got := r.Get(stop.ID); got.Status != domain.StatusActive {
			t.Fatalf("after tick %v status = %s, want ACTIVE", px, got.Status)
		}
	}

	r.ProcessMarketUpdate("AAPL", 94)
	got := r.Get(stop.ID)
	if got.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want FILLED", got.Status)
	}
	if got.FilledQuantity != 10 {
		t.Errorf("filled quantity = %v, want 10", got.FilledQuantity)
	}
	if got.AvgFillPrice != 94 {
		t.Errorf("avg fill price = %v, want 94", got.AvgFillPrice)
	}
	if got.FilledQuantity > got.Quantity {
		t.Errorf("filled %v exceeds requested %v", got.FilledQuantity, got.Quantity)
	}
}

func TestBuySideStopTriggersAbove(t *testing.T) {
	r := newTestRegistry()
	// BUY stop covering a short: fires when price rises through the stop.
	stop := mustCreate(t, r, CreateSpec{
		Symbol:   "TSLA",
		Quantity: 5,
		Side:     domain.SideBuy,
		Params:   StopLossParams{StopPrice: 105},
	})

	r.ProcessMarketUpdate("TSLA", 100)
	if got := r.Get(stop.ID); got.Status != domain.StatusActive {
		t.Fatalf("status = %s, want ACTIVE below stop", got.Status)
	}
	r.ProcessMarketUpdate("TSLA", 106)
	if got := r.Get(stop.ID); got.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want FILLED above stop", got.Status)
	}
}

func TestTakeProfitTriggers(t *testing.T) {
	r := newTestRegistry()
	tp := mustCreate(t, r, CreateSpec{
		Symbol:   "AAPL",
		Quantity: 10,
		Side:     domain.SideSell,
		Params:   TakeProfitParams{LimitPrice: 110},
	})

	r.ProcessMarketUpdate("AAPL", 109)
	if got := r.Get(tp.ID); got.Status != domain.StatusActive {
		t.Fatalf("status = %s, want ACTIVE below target", got.Status)
	}
	r.ProcessMarketUpdate("AAPL", 110)
	if got := r.Get(tp.ID); got.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want FILLED at target", got.Status)
	}
}

func TestOCOFillCancelsSibling(t *testing.T) {
	r := newTestRegistry()
	stop := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95}, OCOGroup: "g1",
	})
	limit := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideSell,
		Params: TakeProfitParams{LimitPrice: 110}, OCOGroup: "g1",
	})

	r.ProcessMarketUpdate("AAPL", 111)

	if got := r.Get(limit.ID); got.Status != domain.StatusFilled {
		t.Errorf("limit status = %s, want FILLED", got.Status)
	}
	got := r.Get(stop.ID)
	if got.Status != domain.StatusCancelled {
		t.Errorf("stop status = %s, want CANCELLED", got.Status)
	}
	if len(got.Notes) != 1 {
		t.Errorf("stop notes = %v, want exactly one cancellation note", got.Notes)
	}
}

func TestOCOCancelCancelsSibling(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95}, OCOGroup: "g2",
	})
	b := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: TakeProfitParams{LimitPrice: 110}, OCOGroup: "g2",
	})

	if !r.Cancel(a.ID, "user request") {
		t.Fatal("Cancel returned false for active order")
	}
	if got := r.Get(b.ID); got.Status != domain.StatusCancelled {
		t.Errorf("sibling status = %s, want CANCELLED", got.Status)
	}
}

func TestCancelUnknownAndTerminal(t *testing.T) {
	r := newTestRegistry()
	if r.Cancel("no-such-id", "x") {
		t.Error("Cancel of unknown id returned true")
	}

	o := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95},
	})
	r.ProcessMarketUpdate("AAPL", 90)
	if got := r.Get(o.ID); got.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want FILLED", got.Status)
	}

	// Terminal orders never mutate again.
	if r.Cancel(o.ID, "too late") {
		t.Error("Cancel of FILLED order returned true")
	}
	if got := r.Get(o.ID); got.Status != domain.StatusFilled {
		t.Errorf("status after cancel attempt = %s, want FILLED", got.Status)
	}
}

func TestBracketCancelCascades(t *testing.T) {
	r := newTestRegistry()
	br, err := r.CreateBracket(BracketSpec{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy, UserID: "u1",
		EntryPrice: 100, StopPrice: 95, TargetPrice: 110,
	})
	if err != nil {
		t.Fatalf("CreateBracket: %v", err)
	}
	if br.StopLeg.ParentID == nil || *br.StopLeg.ParentID != br.Parent.ID {
		t.Error("stop leg missing parent back-reference")
	}
	if len(br.Parent.ChildIDs) != 2 {
		t.Fatalf("parent child ids = %v, want 2", br.Parent.ChildIDs)
	}

	if !r.Cancel(br.Parent.ID, "user request") {
		t.Fatal("Cancel parent returned false")
	}
	for _, leg := range []string{br.StopLeg.ID, br.ProfitLeg.ID} {
		if got := r.Get(leg); got.Status != domain.StatusCancelled {
			t.Errorf("leg %s status = %s, want CANCELLED", leg, got.Status)
		}
	}
}

func TestBracketValidation(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CreateBracket(BracketSpec{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
		EntryPrice: 100, StopPrice: 105, TargetPrice: 110, // stop above entry
	})
	if !errors.Is(err, ErrInvalidOrderParams) {
		t.Errorf("err = %v, want ErrInvalidOrderParams", err)
	}
}

func TestTrailingStopRatchet(t *testing.T) {
	r := newTestRegistry()
	ts, err := r.CreateTrailingStop("AAPL", 10, domain.SideSell, "u1", 5, 0)
	if err != nil {
		t.Fatalf("CreateTrailingStop: %v", err)
	}
	if got := r.Get(ts.ID); got.StopPrice != nil {
		t.Fatal("stop price set before first tick")
	}

	// First tick initializes; later ticks ratchet up, never down.
	ticks := []float64{100, 104, 102, 108}
	wantStops := []float64{95, 99, 99, 103}
	prev := 0.0
	for i, px := range ticks {
		r.ProcessMarketUpdate("AAPL", px)
		got := r.Get(ts.ID)
		if got.StopPrice == nil {
			t.Fatalf("tick %v: stop price still unset", px)
		}
		if *got.StopPrice != wantStops[i] {
			t.Errorf("tick %v: stop = %v, want %v", px, *got.StopPrice, wantStops[i])
		}
		if *got.StopPrice < prev {
			t.Errorf("tick %v: stop price decreased %v -> %v", px, prev, *got.StopPrice)
		}
		prev = *got.StopPrice
	}

	// Fall through the ratcheted stop.
	r.ProcessMarketUpdate("AAPL", 102.5)
	if got := r.Get(ts.ID); got.Status != domain.StatusFilled {
		t.Errorf("status = %s, want FILLED after falling through stop", got.Status)
	}
}

func TestTrailingStopPercent(t *testing.T) {
	r := newTestRegistry()
	ts, err := r.CreateTrailingStop("AAPL", 10, domain.SideSell, "u1", 0, 0.10)
	if err != nil {
		t.Fatalf("CreateTrailingStop: %v", err)
	}
	r.ProcessMarketUpdate("AAPL", 200)
	if got := r.Get(ts.ID); got.StopPrice == nil || *got.StopPrice != 180 {
		t.Fatalf("stop = %v, want 180", got.StopPrice)
	}
}

func TestCustomConditionsGateExecution(t *testing.T) {
	r := newTestRegistry()
	o := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95},
		Conditions: []models.Condition{
			{Op: domain.OpGT, Threshold: 90},
		},
	})

	// Primary trigger fires but the condition (price > 90) fails.
	r.ProcessMarketUpdate("AAPL", 89)
	if got := r.Get(o.ID); got.Status != domain.StatusActive {
		t.Fatalf("status = %s, want ACTIVE while condition fails", got.Status)
	}

	// Both the trigger and the condition hold.
	r.ProcessMarketUpdate("AAPL", 94)
	if got := r.Get(o.ID); got.Status != domain.StatusFilled {
		t.Errorf("status = %s, want FILLED", got.Status)
	}
}

func TestConditionToleranceBands(t *testing.T) {
	cases := []struct {
		op    domain.ConditionOp
		price float64
		want  bool
	}{
		{domain.OpEQ, 100.005, true},
		{domain.OpEQ, 100.02, false},
		{domain.OpNEQ, 100.005, false},
		{domain.OpNEQ, 100.02, true},
		{domain.OpGTE, 100, true},
		{domain.OpLTE, 100.01, false},
		{domain.OpLT, 99.99, true},
		{domain.OpGT, 100, false},
	}
	for _, tc := range cases {
		got := conditionsHold([]models.Condition{{Op: tc.op, Threshold: 100}}, tc.price)
		if got != tc.want {
			t.Errorf("%s vs 100 at price %v = %v, want %v", tc.op, tc.price, got, tc.want)
		}
	}
}

func TestQueries(t *testing.T) {
	r := newTestRegistry()
	mustCreate(t, r, CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, UserID: "u1", Params: StopLossParams{StopPrice: 95}})
	mustCreate(t, r, CreateSpec{Symbol: "MSFT", Quantity: 1, Side: domain.SideSell, UserID: "u1", Params: StopLossParams{StopPrice: 300}})
	mustCreate(t, r, CreateSpec{Symbol: "AAPL", Quantity: 1, Side: domain.SideBuy, UserID: "u2", Params: MarketParams{}})

	if got := len(r.OrdersByUser("u1")); got != 2 {
		t.Errorf("u1 orders = %d, want 2", got)
	}
	if got := len(r.OrdersByUser("nobody")); got != 0 {
		t.Errorf("unknown user orders = %d, want 0", got)
	}
	if got := len(r.ActiveOrders("AAPL")); got != 2 {
		t.Errorf("AAPL active = %d, want 2", got)
	}
	if got := len(r.ActiveOrders("")); got != 3 {
		t.Errorf("all active = %d, want 3", got)
	}

	// Query results are copies; mutating them must not touch the registry.
	list := r.ActiveOrders("AAPL")
	list[0].Status = domain.StatusCancelled
	if got := len(r.ActiveOrders("AAPL")); got != 2 {
		t.Errorf("registry mutated through query result")
	}
}

func TestExpirySweep(t *testing.T) {
	r := newTestRegistry()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	stale := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95}, TimeInForce: domain.TIFDay, ExpiresAt: &past,
	})
	fresh := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
		Params: StopLossParams{StopPrice: 95}, TimeInForce: domain.TIFDay, ExpiresAt: &future,
	})

	if n := r.SweepExpired(time.Now()); n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	if got := r.Get(stale.ID); got.Status != domain.StatusExpired {
		t.Errorf("stale status = %s, want EXPIRED", got.Status)
	}
	if got := r.Get(fresh.ID); got.Status != domain.StatusActive {
		t.Errorf("fresh status = %s, want ACTIVE", got.Status)
	}

	// EXPIRED is terminal: ticks and cancels no longer apply.
	r.ProcessMarketUpdate("AAPL", 90)
	if got := r.Get(stale.ID); got.Status != domain.StatusExpired {
		t.Errorf("expired order mutated by tick: %s", got.Status)
	}
	if r.Cancel(stale.ID, "x") {
		t.Error("Cancel of EXPIRED order returned true")
	}
}

func TestEvictTerminal(t *testing.T) {
	r := newTestRegistry()
	o := mustCreate(t, r, CreateSpec{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell, UserID: "u1",
		Params: StopLossParams{StopPrice: 95},
	})
	r.ProcessMarketUpdate("AAPL", 90)

	// Inside the retention window nothing is evicted.
	if n := r.EvictTerminal(time.Hour); n != 0 {
		t.Fatalf("evicted = %d, want 0 inside window", n)
	}
	if r.Get(o.ID) == nil {
		t.Fatal("order evicted inside retention window")
	}

	// Zero retention evicts every terminal order.
	if n := r.EvictTerminal(0); n != 1 {
		t.Fatalf("evicted = %d, want 1", n)
	}
	if r.Get(o.ID) != nil {
		t.Error("order still present after eviction")
	}
	if got := len(r.OrdersByUser("u1")); got != 0 {
		t.Errorf("user index still holds %d evicted orders", got)
	}
}

func TestMarketOrderFillsOnNextTick(t *testing.T) {
	r := newTestRegistry()
	o := mustCreate(t, r, CreateSpec{Symbol: "AAPL", Quantity: 2, Side: domain.SideBuy, Params: MarketParams{}})
	r.ProcessMarketUpdate("AAPL", 123.45)
	got := r.Get(o.ID)
	if got.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want FILLED", got.Status)
	}
	if got.AvgFillPrice != 123.45 {
		t.Errorf("avg fill price = %v, want 123.45", got.AvgFillPrice)
	}
}
