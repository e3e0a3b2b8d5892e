// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/domain/cart"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"github.com/your-org/pcstore-backend/internal/pkg/money"
)

var (
	ErrSessionNotFound      = apperr.New(apperr.KindNotFound, "checkout_not_found", "checkout session not found")
	ErrSessionNotAuthorized = apperr.New(apperr.KindNotAuthorized, "checkout_not_authorized", "not authorized to access this checkout")
	ErrEmptyCheckout        = apperr.New(apperr.KindValidation, "empty_checkout", "no items in checkout")
	ErrTotalMismatch        = apperr.New(apperr.KindTotalMismatch, "total_mismatch", "declared total does not match the checkout items")
	ErrPaymentMismatch      = apperr.New(apperr.KindPaymentAmountMismatch, "payment_amount_mismatch", "payment amount does not match the checkout total")
	ErrInvalidPaymentStatus = apperr.New(apperr.KindInvalidPaymentStatus, "invalid_payment_status", "invalid payment status")
	ErrPaymentRequired      = apperr.New(apperr.KindPaymentRequired, "payment_required", "checkout is not paid")
	ErrAlreadyFinalized     = apperr.New(apperr.KindAlreadyFinalized, "already_finalized", "checkout already finalized")
)

// StatusPaid is the only payment status a client may declare
const StatusPaid = "paid"

// Transactor runs fn in one database transaction carried by ctx
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CartReader reads the live cart of an owner
type CartReader interface {
	GetCart(ctx context.Context, owner identity.Owner) (*cart.Cart, error)
}

// BuildResolver authorizes and prices PC builds
type BuildResolver interface {
	Resolve(ctx context.Context, actor identity.Owner, buildID uint) (*pcbuild.Build, *pcbuild.Quote, error)
}

// OrderMaterializer turns a paid session into an order. Materialize runs
// inside the finalize transaction; ReleaseCart runs after it committed
// and reports whether the cart was cleared.
type OrderMaterializer interface {
	Materialize(ctx context.Context, s *Session) (orderID uint, err error)
	ReleaseCart(ctx context.Context, s *Session, orderID uint) bool
}

// LineInput is a client supplied checkout line before normalization.
// UnitPrice and Quantity accept numbers or numeric strings.
type LineInput struct {
	Ref       lineitem.Ref `json:"ref"`
	Name      string       `json:"name"`
	ImageURL  string       `json:"image_url"`
	UnitPrice interface{}  `json:"unit_price"`
	Quantity  interface{}  `json:"quantity"`
	Size      string       `json:"size"`
	Color     string       `json:"color"`
}

// CreateRequest is the input of CreateFromCart
type CreateRequest struct {
	Lines           []LineInput `json:"checkout_items"`
	ShippingAddress Address     `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	DeclaredTotal   interface{} `json:"total_price"`
}

// FinalizeResult reports the outcome of Finalize
type FinalizeResult struct {
	Session     *Session `json:"checkout"`
	OrderID     uint     `json:"order_id"`
	CartCleared bool     `json:"cart_cleared"`
}

// Service handles the checkout session lifecycle
type Service struct {
	store  Store
	tx     Transactor
	carts  CartReader
	builds BuildResolver
	orders OrderMaterializer
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService creates a new checkout service
func NewService(store Store, tx Transactor, carts CartReader, builds BuildResolver, orders OrderMaterializer, log logrus.FieldLogger) *Service {
	return &Service{
		store:  store,
		tx:     tx,
		carts:  carts,
		builds: builds,
		orders: orders,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateFromCart validates client lines against the declared total and
// stores them as an immutable snapshot
func (s *Service) CreateFromCart(ctx context.Context, userID uint, req CreateRequest) (*Session, error) {
	if userID == 0 {
		return nil, ErrSessionNotAuthorized.WithMessage("checkout requires an authenticated user")
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCheckout
	}
	if missing := missingFields(req.ShippingAddress, req.PaymentMethod); len(missing) > 0 {
		return nil, apperr.Validation("shipping address and payment method are required", missing...)
	}

	lines := make([]lineitem.Line, 0, len(req.Lines))
	for i, in := range req.Lines {
		l, err := normalizeLine(i, in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	declared, err := money.ParseAmount(req.DeclaredTotal)
	if err != nil {
		return nil, err
	}
	expected := lineitem.Sum(lines)
	if !money.Equal(declared, expected) {
		return nil, ErrTotalMismatch.WithDetails(mismatchDetails(declared, expected))
	}

	sess := &Session{
		UserID:            userID,
		Lines:             lines,
		ShippingAddress:   trimAddress(req.ShippingAddress),
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		TotalPrice:        declared,
		PaymentState:      PaymentPending,
		FinalizationState: FinalizationOpen,
	}
	if err := s.create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateFromUserCart snapshots the user's live cart. A nil declared total
// accepts the cart's own total.
func (s *Service) CreateFromUserCart(ctx context.Context, userID uint, address Address, paymentMethod string, declaredTotal interface{}) (*Session, error) {
	if userID == 0 {
		return nil, ErrSessionNotAuthorized.WithMessage("checkout requires an authenticated user")
	}
	c, err := s.carts.GetCart(ctx, identity.UserOwner(userID))
	if err != nil {
		return nil, err
	}

	req := CreateRequest{
		Lines:           make([]LineInput, 0, len(c.Lines)),
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		DeclaredTotal:   declaredTotal,
	}
	for _, l := range c.Lines {
		req.Lines = append(req.Lines, LineInput{
			Ref:       l.Ref,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	if req.DeclaredTotal == nil {
		req.DeclaredTotal = c.TotalPrice
	}
	return s.CreateFromCart(ctx, userID, req)
}

// CreateFromBuild prices the build on the server and checks it out as
// its component lines. Any client total is ignored.
func (s *Service) CreateFromBuild(ctx context.Context, userID, buildID uint, address Address, paymentMethod string) (*Session, error) {
	if userID == 0 {
		return nil, ErrSessionNotAuthorized.WithMessage("checkout requires an authenticated user")
	}
	if missing := missingFields(address, paymentMethod); len(missing) > 0 {
		return nil, apperr.Validation("shipping address and payment method are required", missing...)
	}

	b, quote, err := s.builds.Resolve(ctx, identity.UserOwner(userID), buildID)
	if err != nil {
		return nil, err
	}
	if len(quote.Lines) == 0 {
		return nil, ErrEmptyCheckout.WithMessage("PC build has no purchasable components").
			WithDetails(map[string]interface{}{"build_id": buildID, "unresolved_products": quote.Unresolved})
	}

	sourceID := b.ID
	sess := &Session{
		UserID:            userID,
		Lines:             lineitem.Clone(quote.Lines),
		ShippingAddress:   trimAddress(address),
		PaymentMethod:     strings.TrimSpace(paymentMethod),
		TotalPrice:        quote.Total,
		PaymentState:      PaymentPending,
		FinalizationState: FinalizationOpen,
		SourceBuildID:     &sourceID,
		IsBuildCheckout:   true,
	}
	if err := s.create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns a session owned by userID
func (s *Service) Get(ctx context.Context, userID, id uint) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.OwnedBy(userID) {
		return nil, ErrSessionNotAuthorized.WithDetails(map[string]interface{}{"checkout_id": id})
	}
	return sess, nil
}

// RecordPayment marks the session paid. Only "paid" is accepted and a
// declared amount must match the session total. Repeating it keeps the
// first paid time.
func (s *Service) RecordPayment(ctx context.Context, userID, id uint, status string, details map[string]interface{}) (*Session, error) {
	if status != StatusPaid {
		return nil, ErrInvalidPaymentStatus.WithDetails(map[string]interface{}{"status": status})
	}

	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sess.IsFinalized() {
		return nil, ErrAlreadyFinalized.WithDetails(map[string]interface{}{"checkout_id": id})
	}

	// a null amount counts as absent
	if raw, ok := details["amount"]; ok && raw != nil {
		amount, err := money.ParseAmount(raw)
		if err != nil {
			return nil, err
		}
		if !money.Equal(amount, sess.TotalPrice) {
			return nil, ErrPaymentMismatch.WithDetails(mismatchDetails(amount, sess.TotalPrice))
		}
	}

	paidAt := s.now()
	if sess.IsPaid() && sess.PaidAt != nil {
		paidAt = *sess.PaidAt
	}
	ok, err := s.store.MarkPaid(ctx, id, paidAt, details)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyFinalized.WithDetails(map[string]interface{}{"checkout_id": id})
	}

	sess.PaymentState = PaymentPaid
	sess.PaidAt = &paidAt
	sess.PaymentDetails = details

	s.log.WithFields(logrus.Fields{
		"checkout_id": id,
		"user_id":     userID,
		"total_price": sess.TotalPrice.String(),
	}).Info("checkout payment recorded")
	return sess, nil
}

// Finalize converts a paid session into an order exactly once. The order
// and the finalized state commit together; clearing the cart follows and
// may fail without undoing the order.
func (s *Service) Finalize(ctx context.Context, userID, id uint) (*FinalizeResult, error) {
	var (
		sess    *Session
		orderID uint
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if !sess.IsPaid() {
			return ErrPaymentRequired.WithDetails(map[string]interface{}{"checkout_id": id})
		}
		if sess.IsFinalized() {
			return ErrAlreadyFinalized.WithDetails(map[string]interface{}{"checkout_id": id})
		}

		orderID, err = s.orders.Materialize(ctx, sess)
		if err != nil {
			return err
		}

		at := s.now()
		ok, err := s.store.MarkFinalized(ctx, id, at)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyFinalized.WithDetails(map[string]interface{}{"checkout_id": id})
		}
		sess.FinalizationState = FinalizationFinalized
		sess.FinalizedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	cleared := s.orders.ReleaseCart(ctx, sess, orderID)

	s.log.WithFields(logrus.Fields{
		"checkout_id":  id,
		"order_id":     orderID,
		"user_id":      userID,
		"cart_cleared": cleared,
	}).Info("checkout finalized")

	return &FinalizeResult{Session: sess, OrderID: orderID, CartCleared: cleared}, nil
}

func (s *Service) create(ctx context.Context, sess *Session) error {
	if err := s.store.Create(ctx, sess); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"checkout_id":       sess.ID,
		"user_id":           sess.UserID,
		"line_count":        len(sess.Lines),
		"total_price":       sess.TotalPrice.String(),
		"is_build_checkout": sess.IsBuildCheckout,
	}).Info("checkout created")
	return nil
}

func normalizeLine(index int, in LineInput) (lineitem.Line, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if !in.Ref.Valid() {
		missing = append(missing, "ref")
	}
	if len(missing) > 0 {
		e := apperr.Validation("checkout item is incomplete", missing...)
		return lineitem.Line{}, e.WithDetails(map[string]interface{}{"index": index})
	}

	price, err := money.ParseAmount(in.UnitPrice)
	if err != nil {
		return lineitem.Line{}, withIndex(err, index)
	}
	qty, err := money.PositiveQuantity(in.Quantity)
	if err != nil {
		return lineitem.Line{}, withIndex(err, index)
	}

	return lineitem.Line{
		Ref:       in.Ref,
		Name:      strings.TrimSpace(in.Name),
		ImageURL:  in.ImageURL,
		UnitPrice: price,
		Quantity:  qty,
		Size:      in.Size,
		Color:     in.Color,
	}, nil
}

func withIndex(err error, index int) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.WithDetails(map[string]interface{}{"index": index})
	}
	return err
}

func mismatchDetails(declared, expected decimal.Decimal) map[string]interface{} {
	return map[string]interface{}{
		"declared":   declared.String(),
		"expected":   expected.String(),
		"difference": declared.Sub(expected).String(),
	}
}

func trimAddress(a Address) Address {
	return Address{
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

func missingFields(address Address, paymentMethod string) []string {
	missing := address.Missing()
	if strings.TrimSpace(paymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	return missing
}
