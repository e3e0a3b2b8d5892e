// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/domain/catalog"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"github.com/your-org/pcstore-backend/internal/pkg/money"
)

// Transactor runs fn in one database transaction carried by ctx
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BuildResolver authorizes and prices PC builds
type BuildResolver interface {
	Resolve(ctx context.Context, actor identity.Owner, buildID uint) (*pcbuild.Build, *pcbuild.Quote, error)
}

// MergeState is the branch the login merge took
type MergeState string

const (
	NoGuestCart    MergeState = "no_guest_cart"
	GuestCartEmpty MergeState = "guest_cart_empty"
	GuestOnly      MergeState = "guest_only"
	BothExist      MergeState = "both_exist"
)

// MergeResult is the outcome of MergeGuestIntoUser
type MergeResult struct {
	State MergeState
	Cart  *Cart
}

// Service handles cart business logic
type Service struct {
	store   Store
	tx      Transactor
	catalog catalog.Lookup
	builds  BuildResolver
	retries int
	log     logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(store Store, tx Transactor, lookup catalog.Lookup, builds BuildResolver, retries int, log logrus.FieldLogger) *Service {
	if retries < 1 {
		retries = 1
	}
	return &Service{
		store:   store,
		tx:      tx,
		catalog: lookup,
		builds:  builds,
		retries: retries,
		log:     log,
	}
}

// GetCart returns the owner's cart, or an empty cart when none exists
func (s *Service) GetCart(ctx context.Context, owner identity.Owner) (*Cart, error) {
	if owner.IsZero() {
		return nil, apperr.Validation("cart owner is required", "owner")
	}
	c, err := s.store.FindByOwner(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return Empty(owner), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddLine adds quantity units of a catalog product at its current price
func (s *Service) AddLine(ctx context.Context, owner identity.Owner, productID uint, quantity int, size, color string) (*Cart, error) {
	if err := validateAdd(owner, quantity); err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, apperr.Validation("product id is required", "product_id")
	}

	prod, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	line := lineitem.Line{
		Ref:       lineitem.CatalogRef(prod.ID),
		Name:      prod.Name,
		ImageURL:  prod.FirstImage(),
		UnitPrice: prod.Price,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
	}
	return s.mutate(ctx, owner, true, func(c *Cart) error {
		c.addLine(line)
		return nil
	})
}

// AddBuildLine adds quantity units of a priced PC build as a single line
func (s *Service) AddBuildLine(ctx context.Context, owner identity.Owner, buildID uint, quantity int) (*Cart, error) {
	if err := validateAdd(owner, quantity); err != nil {
		return nil, err
	}

	_, quote, err := s.builds.Resolve(ctx, owner, buildID)
	if err != nil {
		return nil, err
	}

	line := quote.BuildLine(quantity)
	return s.mutate(ctx, owner, true, func(c *Cart) error {
		c.addLine(line)
		return nil
	})
}

// UpdateLineQuantity sets the quantity of the keyed line. Zero or less removes it.
func (s *Service) UpdateLineQuantity(ctx context.Context, owner identity.Owner, key lineitem.Key, quantity int) (*Cart, error) {
	if owner.IsZero() {
		return nil, apperr.Validation("cart owner is required", "owner")
	}
	return s.mutate(ctx, owner, false, func(c *Cart) error {
		if !c.setQuantity(key, quantity) {
			return lineNotFound(key)
		}
		return nil
	})
}

// RemoveLine removes the keyed line
func (s *Service) RemoveLine(ctx context.Context, owner identity.Owner, key lineitem.Key) (*Cart, error) {
	if owner.IsZero() {
		return nil, apperr.Validation("cart owner is required", "owner")
	}
	return s.mutate(ctx, owner, false, func(c *Cart) error {
		if !c.removeLine(key) {
			return lineNotFound(key)
		}
		return nil
	})
}

// MergeGuestIntoUser reconciles a guest session cart into the user's cart
// at login. Running it again after a completed merge finds no guest cart
// and returns the user cart unchanged.
func (s *Service) MergeGuestIntoUser(ctx context.Context, sessionID string, userID uint) (*MergeResult, error) {
	guestOwner := identity.GuestOwner(sessionID)
	userOwner := identity.UserOwner(userID)
	if guestOwner.IsZero() || userID == 0 {
		return nil, apperr.Validation("guest session and user are required", "guest_session_id", "user_id")
	}

	var result *MergeResult
	err := s.retry(ctx, func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			r, err := s.merge(ctx, guestOwner, userOwner)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"merge_state": result.State,
		"line_count":  len(result.Cart.Lines),
	}).Info("guest cart merged")
	return result, nil
}

func (s *Service) merge(ctx context.Context, guestOwner, userOwner identity.Owner) (*MergeResult, error) {
	guest, err := s.findOptional(ctx, guestOwner)
	if err != nil {
		return nil, err
	}
	user, err := s.findOptional(ctx, userOwner)
	if err != nil {
		return nil, err
	}

	switch {
	case guest == nil:
		return &MergeResult{State: NoGuestCart, Cart: orEmpty(user, userOwner)}, nil

	case len(guest.Lines) == 0:
		if err := s.store.Delete(ctx, guest); err != nil {
			return nil, err
		}
		return &MergeResult{State: GuestCartEmpty, Cart: orEmpty(user, userOwner)}, nil

	case user == nil:
		guest.Owner = userOwner
		if err := s.store.Save(ctx, guest); err != nil {
			return nil, err
		}
		return &MergeResult{State: GuestOnly, Cart: guest}, nil

	default:
		user.absorb(guest.Lines)
		if err := s.store.Save(ctx, user); err != nil {
			return nil, err
		}
		if err := s.store.Delete(ctx, guest); err != nil {
			return nil, err
		}
		return &MergeResult{State: BothExist, Cart: user}, nil
	}
}

// ClearUserCart deletes the user's cart after a purchase. A missing cart is
// already clear.
func (s *Service) ClearUserCart(ctx context.Context, userID uint) error {
	owner := identity.UserOwner(userID)
	return s.retry(ctx, func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			c, err := s.store.FindByOwner(ctx, owner)
			if errors.Is(err, ErrCartNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return s.store.Delete(ctx, c)
		})
	})
}

// mutate loads the owner's cart, applies fn and writes it back in one
// transaction, retrying the whole cycle on a version conflict.
func (s *Service) mutate(ctx context.Context, owner identity.Owner, create bool, fn func(c *Cart) error) (*Cart, error) {
	var out *Cart
	err := s.retry(ctx, func(ctx context.Context) error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			c, err := s.store.FindByOwner(ctx, owner)
			isNew := false
			switch {
			case errors.Is(err, ErrCartNotFound) && create:
				c, isNew = Empty(owner), true
			case err != nil:
				return err
			}

			if err := fn(c); err != nil {
				return err
			}

			if isNew {
				err = s.store.Create(ctx, c)
			} else {
				err = s.store.Save(ctx, c)
			}
			if err != nil {
				return err
			}
			out = c
			return nil
		})
	})
	return out, err
}

func (s *Service) retry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		err = op(ctx)
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.log.WithField("attempt", attempt).Debug("cart version conflict, retrying")
	}
	return err
}

func (s *Service) findOptional(ctx context.Context, owner identity.Owner) (*Cart, error) {
	c, err := s.store.FindByOwner(ctx, owner)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil
	}
	return c, err
}

func orEmpty(c *Cart, owner identity.Owner) *Cart {
	if c == nil {
		return Empty(owner)
	}
	return c
}

func validateAdd(owner identity.Owner, quantity int) error {
	if owner.IsZero() {
		return apperr.Validation("cart owner is required", "owner")
	}
	if quantity <= 0 {
		return money.ErrInvalidAmount.WithMessage("quantity must be positive").
			WithDetails(map[string]interface{}{"value": quantity})
	}
	return nil
}

func lineNotFound(key lineitem.Key) error {
	return ErrLineNotFound.WithDetails(map[string]interface{}{
		"ref":   key.Ref.String(),
		"size":  key.Size,
		"color": key.Color,
	})
}
