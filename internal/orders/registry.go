package orders

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// Registry owns every order and its secondary indices. A single mutex
// serializes creates, cancels and tick evaluation so a cancel racing a fill
// resolves by arrival order: the loser sees a terminal order and no-ops.
//
// The orders map is the only place Order structs live; the symbol, user and
// OCO indices hold ids only.
type Registry struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	bySymbol  map[string][]string
	byUser    map[string][]string
	ocoGroups map[string][]string

	logger *zap.Logger
	now    func() time.Time
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		orders:    make(map[string]*models.Order),
		bySymbol:  make(map[string][]string),
		byUser:    make(map[string][]string),
		ocoGroups: make(map[string][]string),
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the request and inserts a new ACTIVE order.
func (r *Registry) Create(spec CreateSpec) (*models.Order, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.insert(spec)
	r.logger.Debug("order created",
		zap.String("id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("kind", o.Kind.String()),
		zap.String("side", o.Side.String()),
	)
	return clone(o), nil
}

// insert builds the order from a validated spec. Caller holds the lock.
func (r *Registry) insert(spec CreateSpec) *models.Order {
	now := r.now()
	tif := spec.TimeInForce
	if tif == "" {
		tif = domain.TIFGoodTillCancelled
	}
	o := &models.Order{
		ID:          uuid.NewString(),
		Symbol:      spec.Symbol,
		Quantity:    spec.Quantity,
		Kind:        spec.Params.Kind(),
		Side:        spec.Side,
		Status:      domain.StatusActive,
		TimeInForce: tif,
		ExpiresAt:   spec.ExpiresAt,
		UserID:      spec.UserID,
		Conditions:  spec.Conditions,
		OCOGroup:    spec.OCOGroup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch p := spec.Params.(type) {
	case LimitParams:
		price := p.LimitPrice
		o.LimitPrice = &price
	case StopLossParams:
		price := p.StopPrice
		o.StopPrice = &price
	case TakeProfitParams:
		price := p.LimitPrice
		o.LimitPrice = &price
	case TrailingStopParams:
		if p.TrailingAmount > 0 {
			amt := p.TrailingAmount
			o.TrailingAmount = &amt
		} else {
			pct := p.TrailingPercent
			o.TrailingPercent = &pct
		}
	}

	r.orders[o.ID] = o
	r.bySymbol[o.Symbol] = append(r.bySymbol[o.Symbol], o.ID)
	if o.UserID != "" {
		r.byUser[o.UserID] = append(r.byUser[o.UserID], o.ID)
	}
	if o.OCOGroup != "" {
		r.ocoGroups[o.OCOGroup] = append(r.ocoGroups[o.OCOGroup], o.ID)
	}
	return o
}

// CreateBracket creates a limit entry order plus two opposite-side child
// legs: a stop-loss and a take-profit. The parent keeps both child ids for
// its cancellation cascade.
func (r *Registry) CreateBracket(spec BracketSpec) (*models.BracketOrder, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	parent := r.insert(CreateSpec{
		Symbol:      spec.Symbol,
		Quantity:    spec.Quantity,
		Side:        spec.Side,
		UserID:      spec.UserID,
		Params:      LimitParams{LimitPrice: spec.EntryPrice},
		TimeInForce: spec.TimeInForce,
		ExpiresAt:   spec.ExpiresAt,
	})

	childSide := spec.Side.Opposite()
	stopLeg := r.insert(CreateSpec{
		Symbol:      spec.Symbol,
		Quantity:    spec.Quantity,
		Side:        childSide,
		UserID:      spec.UserID,
		Params:      StopLossParams{StopPrice: spec.StopPrice},
		TimeInForce: spec.TimeInForce,
		ExpiresAt:   spec.ExpiresAt,
	})
	profitLeg := r.insert(CreateSpec{
		Symbol:      spec.Symbol,
		Quantity:    spec.Quantity,
		Side:        childSide,
		UserID:      spec.UserID,
		Params:      TakeProfitParams{LimitPrice: spec.TargetPrice},
		TimeInForce: spec.TimeInForce,
		ExpiresAt:   spec.ExpiresAt,
	})

	stopLeg.ParentID = &parent.ID
	profitLeg.ParentID = &parent.ID
	parent.ChildIDs = []string{stopLeg.ID, profitLeg.ID}

	r.logger.Info("bracket created",
		zap.String("parent", parent.ID),
		zap.String("stop_leg", stopLeg.ID),
		zap.String("profit_leg", profitLeg.ID),
	)
	return &models.BracketOrder{
		Parent:    clone(parent),
		StopLeg:   clone(stopLeg),
		ProfitLeg: clone(profitLeg),
	}, nil
}

// CreateTrailingStop is a convenience wrapper; pass exactly one of amount or
// percent, zero for the other.
func (r *Registry) CreateTrailingStop(symbol string, qty float64, side domain.Side, userID string, amount, percent float64) (*models.Order, error) {
	return r.Create(CreateSpec{
		Symbol:   symbol,
		Quantity: qty,
		Side:     side,
		UserID:   userID,
		Params:   TrailingStopParams{TrailingAmount: amount, TrailingPercent: percent},
	})
}

// Cancel marks the order CANCELLED with the audit reason and cascades to OCO
// siblings and bracket children. Unknown ids and terminal orders return
// false.
func (r *Registry) Cancel(id, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked(id, reason)
}

func (r *Registry) cancelLocked(id, reason string) bool {
	o, ok := r.orders[id]
	if !ok || o.Status.Terminal() {
		return false
	}

	// Cancel still-active OCO siblings first so the cascade cannot loop back.
	r.cancelOCOSiblings(o, "oco sibling cancelled")

	for _, childID := range o.ChildIDs {
		if child, ok := r.orders[childID]; ok && !child.Status.Terminal() {
			r.cancelLocked(childID, "parent cancelled")
		}
	}

	o.Status = domain.StatusCancelled
	if reason != "" {
		o.Notes = append(o.Notes, "cancelled: "+reason)
	}
	o.UpdatedAt = r.now()
	r.logger.Debug("order cancelled", zap.String("id", id), zap.String("reason", reason))
	return true
}

// cancelOCOSiblings cancels every still-active member of the order's OCO
// group except the order itself. Caller holds the lock.
func (r *Registry) cancelOCOSiblings(o *models.Order, reason string) {
	if o.OCOGroup == "" {
		return
	}
	for _, sibID := range r.ocoGroups[o.OCOGroup] {
		if sibID == o.ID {
			continue
		}
		sib, ok := r.orders[sibID]
		if !ok || sib.Status.Terminal() {
			continue
		}
		sib.Status = domain.StatusCancelled
		sib.Notes = append(sib.Notes, "cancelled: "+reason)
		sib.UpdatedAt = r.now()
		r.logger.Debug("oco sibling cancelled", zap.String("id", sibID), zap.String("group", o.OCOGroup))
	}
}

// Get returns a copy of the order, or nil when unknown.
func (r *Registry) Get(id string) *models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil
	}
	return clone(o)
}

// OrdersByUser returns copies of every order the user owns, any status.
func (r *Registry) OrdersByUser(userID string) []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byUser[userID]
	out := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			out = append(out, clone(o))
		}
	}
	return out
}

// ActiveOrders returns copies of ACTIVE orders, filtered by symbol when one
// is given.
func (r *Registry) ActiveOrders(symbol string) []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Order, 0)
	if symbol != "" {
		for _, id := range r.bySymbol[symbol] {
			if o, ok := r.orders[id]; ok && o.Status == domain.StatusActive {
				out = append(out, clone(o))
			}
		}
		return out
	}
	for _, o := range r.orders {
		if o.Status == domain.StatusActive {
			out = append(out, clone(o))
		}
	}
	return out
}

// EvictTerminal drops terminal orders whose last mutation is older than the
// retention window and scrubs them from the indices. Terminal orders inside
// the window stay queryable for audit.
func (r *Registry) EvictTerminal(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-retention)
	evicted := 0
	for id, o := range r.orders {
		if !o.Status.Terminal() || o.UpdatedAt.After(cutoff) {
			continue
		}
		delete(r.orders, id)
		r.bySymbol[o.Symbol] = removeID(r.bySymbol[o.Symbol], id)
		if o.UserID != "" {
			r.byUser[o.UserID] = removeID(r.byUser[o.UserID], id)
		}
		if o.OCOGroup != "" {
			r.ocoGroups[o.OCOGroup] = removeID(r.ocoGroups[o.OCOGroup], id)
			if len(r.ocoGroups[o.OCOGroup]) == 0 {
				delete(r.ocoGroups, o.OCOGroup)
			}
		}
		evicted++
	}
	if evicted > 0 {
		r.logger.Info("terminal orders evicted", zap.Int("count", evicted))
	}
	return evicted
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// clone copies an order so callers cannot mutate registry state.
func clone(o *models.Order) *models.Order {
	cp := *o
	cp.Fills = append([]models.Fill(nil), o.Fills...)
	cp.Notes = append([]string(nil), o.Notes...)
	cp.Conditions = append([]models.Condition(nil), o.Conditions...)
	cp.ChildIDs = append([]string(nil), o.ChildIDs...)
	if o.LimitPrice != nil {
		v := *o.LimitPrice
		cp.LimitPrice = &v
	}
	if o.StopPrice != nil {
		v := *o.StopPrice
		cp.StopPrice = &v
	}
	if o.TrailingAmount != nil {
		v := *o.TrailingAmount
		cp.TrailingAmount = &v
	}
	if o.TrailingPercent != nil {
		v := *o.TrailingPercent
		cp.TrailingPercent = &v
	}
	if o.ParentID != nil {
		v := *o.ParentID
		cp.ParentID = &v
	}
	if o.ExpiresAt != nil {
		v := *o.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}
