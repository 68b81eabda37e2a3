package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// defaultPurchaseWindow is how long a buyer has to pay once an offer is
// accepted.
const defaultPurchaseWindow = 24 * time.Hour

var (
	ErrOfferNotFound     = errors.New("offer not found")
	ErrStatusConflict    = errors.New("offer status does not allow this change")
	ErrInsufficientStock = errors.New("product stock does not cover the offer")
)

type roleColumns struct {
	owner           string
	deleted         string
	counterpartID   string
	counterpartName string
}

var columnsByRole = map[types.ViewerRole]roleColumns{
	types.ViewerRequester: {
		owner:           "requester_id",
		deleted:         "deleted_by_requester",
		counterpartID:   "fulfiller_id",
		counterpartName: "fulfiller_name",
	},
	types.ViewerFulfiller: {
		owner:           "fulfiller_id",
		deleted:         "deleted_by_fulfiller",
		counterpartID:   "requester_id",
		counterpartName: "requester_name",
	},
}

// OfferRecord is an offer as it is written to the store, with both parties.
type OfferRecord struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	RequesterID   uuid.UUID
	RequesterName string
	FulfillerID   uuid.UUID
	FulfillerName string
	Status        types.OfferStatus
	Quantity      int
	UnitPrice     decimal.Decimal
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}

type StoreOption func(*OfferStore)

func WithPurchaseWindow(window time.Duration) StoreOption {
	return func(s *OfferStore) {
		if window > 0 {
			s.purchaseWindow = window
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *OfferStore) {
		s.now = now
	}
}

// OfferStore keeps offers and the product snapshots they reference. It
// serves both the fetch and the persistence side of the offer service.
type OfferStore struct {
	db             *sql.DB
	driver         string
	purchaseWindow time.Duration
	now            func() time.Time
}

func NewOfferStore(db *sql.DB, driver string, opts ...StoreOption) *OfferStore {
	s := &OfferStore{
		db:             db,
		driver:         driver,
		purchaseWindow: defaultPurchaseWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OfferStore) q(query string) string {
	return rebind(s.driver, query)
}

func (s *OfferStore) SaveProduct(ctx context.Context, product types.ProductSnapshot) error {
	tiersJSON, err := json.Marshal(product.PriceTiers)
	if err != nil {
		return errors.Wrap(err, "price tiers serialization")
	}

	query := `
		INSERT INTO products (id, name, current_stock, base_price, price_tiers, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			current_stock = excluded.current_stock,
			base_price = excluded.base_price,
			price_tiers = excluded.price_tiers,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, s.q(query),
		product.ID,
		product.Name,
		product.CurrentStock,
		product.BasePrice,
		string(tiersJSON),
		s.now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "product %s save", product.ID)
	}
	return nil
}

func (s *OfferStore) CreateOffer(ctx context.Context, offer OfferRecord) error {
	if offer.Status == "" {
		offer.Status = types.OfferStatusPending
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = s.now()
	}

	query := `
		INSERT INTO offers (
			id, product_id, requester_id, requester_name, fulfiller_id, fulfiller_name,
			status, quantity, unit_price, created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, s.q(query),
		offer.ID,
		offer.ProductID,
		offer.RequesterID,
		offer.RequesterName,
		offer.FulfillerID,
		offer.FulfillerName,
		string(offer.Status),
		offer.Quantity,
		offer.UnitPrice,
		offer.CreatedAt.UTC(),
		s.now().UTC(),
		nullTime(offer.ExpiresAt),
	)
	if err != nil {
		return errors.Wrapf(err, "offer %s creation", offer.ID)
	}
	return nil
}

// FetchOffers returns the offers principalID takes part in as role, newest
// first, minus the ones that side already cleared.
func (s *OfferStore) FetchOffers(ctx context.Context, principalID uuid.UUID, role types.ViewerRole) ([]types.Offer, error) {
	cols, ok := columnsByRole[role]
	if !ok {
		return nil, errors.Errorf("unknown viewer role %q", role)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.status, o.quantity, o.unit_price, o.created_at,
			   o.expires_at, o.purchase_deadline, o.%s, o.%s,
			   p.id, p.name, p.current_stock, p.base_price, p.price_tiers
		FROM offers o
		JOIN products p ON p.id = o.product_id
		WHERE o.%s = $1 AND o.%s = FALSE
		ORDER BY o.created_at DESC
	`, cols.counterpartID, cols.counterpartName, cols.owner, cols.deleted)

	rows, err := s.db.QueryContext(ctx, s.q(query), principalID)
	if err != nil {
		return nil, errors.Wrap(err, "offers retrieval")
	}
	defer rows.Close()

	var offers []types.Offer
	for rows.Next() {
		offer := types.Offer{ViewerRole: role}
		var status string
		var expiresAt, deadline sql.NullTime
		var tiersJSON []byte

		err := rows.Scan(
			&offer.ID,
			&status,
			&offer.Quantity,
			&offer.UnitPrice,
			&offer.CreatedAt,
			&expiresAt,
			&deadline,
			&offer.Counterpart.ID,
			&offer.Counterpart.Name,
			&offer.Product.ID,
			&offer.Product.Name,
			&offer.Product.CurrentStock,
			&offer.Product.BasePrice,
			&tiersJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, "offer scan")
		}

		if err := json.Unmarshal(tiersJSON, &offer.Product.PriceTiers); err != nil {
			return nil, errors.Wrapf(err, "offer %s price tiers deserialization", offer.ID)
		}
		offer.Status = types.OfferStatus(status)
		offer.ExpiresAt = timePtr(expiresAt)
		offer.PurchaseDeadline = timePtr(deadline)

		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "offers iteration")
	}

	return offers, nil
}

// AcceptOffer approves a pending offer, takes its quantity out of the
// product's stock and opens the purchase window.
func (s *OfferStore) AcceptOffer(ctx context.Context, id uuid.UUID) (domain.AcceptResult, error) {
	now := s.now().UTC()
	deadline := now.Add(s.purchaseWindow)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := s.lockState(ctx, tx, id)
		if err != nil {
			return err
		}
		if state.status != types.OfferStatusPending {
			return errors.Wrapf(ErrStatusConflict, "offer %s is %s", id, state.status)
		}

		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE products
			SET current_stock = current_stock - $2, updated_at = $3
			WHERE id = $1 AND current_stock >= $2
		`), state.productID, state.quantity, now)
		if err != nil {
			return errors.Wrap(err, "stock reservation")
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return errors.Wrapf(ErrInsufficientStock, "offer %s needs %d", id, state.quantity)
		}

		_, err = tx.ExecContext(ctx, s.q(`
			UPDATE offers
			SET status = $2, purchase_deadline = $3, updated_at = $4
			WHERE id = $1
		`), id, string(types.OfferStatusApproved), deadline, now)
		return errors.Wrap(err, "offer approval")
	})
	if err != nil {
		return domain.AcceptResult{}, err
	}
	return domain.AcceptResult{PurchaseDeadline: &deadline}, nil
}

func (s *OfferStore) RejectOffer(ctx context.Context, id uuid.UUID, reason string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := s.lockState(ctx, tx, id)
		if err != nil {
			return err
		}
		if state.status != types.OfferStatusPending {
			return errors.Wrapf(ErrStatusConflict, "offer %s is %s", id, state.status)
		}
		return s.setStatus(ctx, tx, id, types.OfferStatusRejected, reason)
	})
}

// CancelOffer withdraws a pending or approved offer. Stock reserved by the
// approval goes back to the product.
func (s *OfferStore) CancelOffer(ctx context.Context, id uuid.UUID, reason string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := s.lockState(ctx, tx, id)
		if err != nil {
			return err
		}

		switch state.status {
		case types.OfferStatusPending:
		case types.OfferStatusApproved:
			_, err := tx.ExecContext(ctx, s.q(`
				UPDATE products SET current_stock = current_stock + $2, updated_at = $3 WHERE id = $1
			`), state.productID, state.quantity, s.now().UTC())
			if err != nil {
				return errors.Wrap(err, "stock release")
			}
		default:
			return errors.Wrapf(ErrStatusConflict, "offer %s is %s", id, state.status)
		}

		return s.setStatus(ctx, tx, id, types.OfferStatusCancelled, reason)
	})
}

// DeleteOffer hides the offer from role's side only; the other party keeps
// seeing it until it clears it too.
func (s *OfferStore) DeleteOffer(ctx context.Context, id uuid.UUID, role types.ViewerRole) error {
	cols, ok := columnsByRole[role]
	if !ok {
		return errors.Errorf("unknown viewer role %q", role)
	}

	query := fmt.Sprintf(`UPDATE offers SET %s = TRUE, updated_at = $2 WHERE id = $1`, cols.deleted)
	res, err := s.db.ExecContext(ctx, s.q(query), id, s.now().UTC())
	if err != nil {
		return errors.Wrapf(err, "offer %s delete", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(ErrOfferNotFound, "offer %s", id)
	}
	return nil
}

type offerState struct {
	status    types.OfferStatus
	quantity  int
	productID uuid.UUID
}

func (s *OfferStore) lockState(ctx context.Context, tx *sql.Tx, id uuid.UUID) (offerState, error) {
	query := `SELECT status, quantity, product_id FROM offers WHERE id = $1`
	if s.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var state offerState
	var status string
	err := tx.QueryRowContext(ctx, s.q(query), id).Scan(&status, &state.quantity, &state.productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return offerState{}, errors.Wrapf(ErrOfferNotFound, "offer %s", id)
		}
		return offerState{}, errors.Wrap(err, "offer state")
	}
	state.status = types.OfferStatus(status)
	return state, nil
}

func (s *OfferStore) setStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status types.OfferStatus, reason string) error {
	_, err := tx.ExecContext(ctx, s.q(`
		UPDATE offers SET status = $2, reason = $3, updated_at = $4 WHERE id = $1
	`), id, string(status), reason, s.now().UTC())
	if err != nil {
		return errors.Wrapf(err, "offer %s status update", id)
	}
	return nil
}

func (s *OfferStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
