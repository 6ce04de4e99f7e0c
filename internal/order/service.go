package order

import (
	"context"
	"sort"
	"time"

	"github.com/wichananm65/shop-backend/internal/address"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/metrics"
	"github.com/wichananm65/shop-backend/internal/money"
	"go.uber.org/zap"
)

// StockPolicy names the one step that decrements stock.
type StockPolicy string

const (
	StockAtCheckout StockPolicy = "checkout"
	StockAtPayment  StockPolicy = "payment"
)

type Options struct {
	StockPolicy StockPolicy
	Currency    string
	Addresses   address.Resolver
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Service provides the checkout workflow and order state transitions.
type Service struct {
	store     Store
	policy    StockPolicy
	currency  string
	addresses address.Resolver
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store Store, opts Options) *Service {
	if opts.StockPolicy == "" {
		opts.StockPolicy = StockAtCheckout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		policy:    opts.StockPolicy,
		currency:  opts.Currency,
		addresses: opts.Addresses,
		metrics:   opts.Metrics,
		log:       opts.Logger.Named("order"),
		now:       time.Now,
	}
}

func (s *Service) observe(op string, userID, orderID int, err error) {
	if err == nil {
		s.metrics.ObserveOrderOp(op, "ok")
		s.log.Info(op+" succeeded", zap.Int("user_id", userID), zap.Int("order_id", orderID))
		return
	}
	kind := apperr.KindOf(err)
	s.metrics.ObserveOrderOp(op, string(kind))
	fields := []zap.Field{zap.Int("user_id", userID), zap.Int("order_id", orderID), zap.String("kind", string(kind)), zap.Error(err)}
	if kind == apperr.KindInternal {
		s.log.Error(op+" failed", fields...)
		return
	}
	s.log.Warn(op+" rejected", fields...)
}

func (s *Service) shipping(ctx context.Context, userID int, req CheckoutRequest) (ShippingInfo, error) {
	info := req.ShippingInfo
	if req.AddressID != nil {
		if s.addresses == nil {
			return ShippingInfo{}, apperr.Validation("saved addresses are not available")
		}
		a, err := s.addresses.Get(ctx, userID, *req.AddressID)
		if err != nil {
			return ShippingInfo{}, err
		}
		info = ShippingInfo{RecipientName: a.FullName, Address: a.SingleLine(), Phone: a.Phone}
	}
	if err := apperr.ValidateStruct(info); err != nil {
		return ShippingInfo{}, err
	}
	return info, nil
}

func productIDs(lines []Line) []int {
	ids := make([]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	sort.Ints(ids)
	return ids
}

func itemLines(items []Item) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// reserve locks the products of lines in ascending id order and checks that
// each is active with enough stock. When take is set the quantities are
// decremented.
func reserve(ctx context.Context, tx Tx, lines []Line, take bool) (map[int]LockedProduct, error) {
	locked, err := tx.LockProducts(ctx, productIDs(lines))
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		p, ok := locked[l.ProductID]
		if !ok || !p.IsActive || p.Stock < l.Quantity {
			return nil, apperr.InsufficientStock(l.ProductID)
		}
	}
	if take {
		for _, l := range lines {
			if err := tx.AdjustStock(ctx, l.ProductID, -l.Quantity); err != nil {
				return nil, err
			}
		}
	}
	return locked, nil
}

// Checkout converts the user's cart into a pending order in one
// transaction. On any error nothing changes: the cart, stock and orders
// are exactly as before.
func (s *Service) Checkout(ctx context.Context, userID int, req CheckoutRequest) (Order, error) {
	var created Order
	info, err := s.shipping(ctx, userID, req)
	if err == nil {
		err = s.store.WithTx(ctx, func(tx Tx) error {
			o, err := s.checkout(ctx, tx, userID, info)
			created = o
			return err
		})
	}
	s.observe("checkout", userID, created.ID, err)
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

func (s *Service) checkout(ctx context.Context, tx Tx, userID int, info ShippingInfo) (Order, error) {
	lines, err := tx.LockCartLines(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	if len(lines) == 0 {
		return Order{}, apperr.EmptyCart()
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	locked, err := reserve(ctx, tx, lines, s.policy == StockAtCheckout)
	if err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	o := Order{
		UserID:        userID,
		Status:        StatusPending,
		Currency:      s.currency,
		RecipientName: info.RecipientName,
		Address:       info.Address,
		Phone:         info.Phone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.InsertOrder(ctx, &o); err != nil {
		return Order{}, err
	}

	var total money.Cents
	o.Items = make([]Item, 0, len(lines))
	for _, l := range lines {
		it := Item{
			ProductID:   l.ProductID,
			ProductName: locked[l.ProductID].Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
		if err := tx.InsertItem(ctx, o.ID, &it); err != nil {
			return Order{}, err
		}
		total += it.Subtotal()
		o.Items = append(o.Items, it)
	}
	if err := tx.SetTotal(ctx, o.ID, total); err != nil {
		return Order{}, err
	}
	o.Total = total

	if err := tx.ClearCart(ctx, userID); err != nil {
		return Order{}, err
	}
	return o, nil
}

// transition locks the order, checks ownership (userID 0 skips the check)
// and the state machine, runs extra inside the same transaction and stores
// the new status.
func (s *Service) transition(ctx context.Context, op string, userID, orderID int, next Status,
	extra func(ctx context.Context, tx Tx, o Order) error) (Order, error) {
	var out Order
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if userID != 0 && o.UserID != userID {
			return ErrNotFound
		}
		if !o.Status.CanTransitionTo(next) {
			return apperr.InvalidState("order %d is %s and cannot become %s", o.ID, o.Status, next)
		}
		if extra != nil {
			if err := extra(ctx, tx, o); err != nil {
				return err
			}
		}
		now := s.now().UTC()
		if err := tx.SetStatus(ctx, o.ID, next, now); err != nil {
			return err
		}
		o.Status, o.UpdatedAt = next, now
		out = o
		return nil
	})
	s.observe(op, userID, orderID, err)
	if err != nil {
		return Order{}, err
	}
	return out, nil
}

// Pay moves a pending order to paid. Under the payment stock policy this is
// where stock is checked and decremented.
func (s *Service) Pay(ctx context.Context, userID, orderID int) (Order, error) {
	var extra func(context.Context, Tx, Order) error
	if s.policy == StockAtPayment {
		extra = func(ctx context.Context, tx Tx, o Order) error {
			_, err := reserve(ctx, tx, itemLines(o.Items), true)
			return err
		}
	}
	return s.transition(ctx, "pay", userID, orderID, StatusPaid, extra)
}

// Cancel moves a pending order to cancelled, returning stock taken at
// checkout.
func (s *Service) Cancel(ctx context.Context, userID, orderID int) (Order, error) {
	var extra func(context.Context, Tx, Order) error
	if s.policy == StockAtCheckout {
		extra = func(ctx context.Context, tx Tx, o Order) error {
			lines := itemLines(o.Items)
			if _, err := tx.LockProducts(ctx, productIDs(lines)); err != nil {
				return err
			}
			for _, l := range lines {
				if err := tx.AdjustStock(ctx, l.ProductID, l.Quantity); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return s.transition(ctx, "cancel", userID, orderID, StatusCancelled, extra)
}

// Ship moves a paid order to shipped. Callers must already hold the
// fulfillment capability.
func (s *Service) Ship(ctx context.Context, orderID int) (Order, error) {
	return s.transition(ctx, "ship", 0, orderID, StatusShipped, nil)
}

func (s *Service) List(ctx context.Context, userID int) ([]Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, orderID int) (Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return o, nil
}
