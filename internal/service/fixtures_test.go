package service

import (
	"context"
	"sync"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeStore struct {
	mu       sync.Mutex
	offers   []types.Offer
	fetchErr error
	err      error
	deadline *time.Time
	block    chan struct{}
	started  chan struct{}

	accepted  []uuid.UUID
	rejected  map[uuid.UUID]string
	cancelled map[uuid.UUID]string
	deleted   []uuid.UUID
}

func newFakeStore(offers ...types.Offer) *fakeStore {
	return &fakeStore{
		offers:    offers,
		rejected:  map[uuid.UUID]string{},
		cancelled: map[uuid.UUID]string{},
	}
}

func (f *fakeStore) FetchOffers(ctx context.Context, principalID uuid.UUID, role types.ViewerRole) ([]types.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]types.Offer(nil), f.offers...), nil
}

func (f *fakeStore) AcceptOffer(ctx context.Context, id uuid.UUID) (domain.AcceptResult, error) {
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.AcceptResult{}, f.err
	}
	f.accepted = append(f.accepted, id)
	return domain.AcceptResult{PurchaseDeadline: f.deadline}, nil
}

func (f *fakeStore) RejectOffer(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rejected[id] = reason
	return nil
}

func (f *fakeStore) CancelOffer(ctx context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled[id] = reason
	return nil
}

func (f *fakeStore) DeleteOffer(ctx context.Context, id uuid.UUID, role types.ViewerRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accepted) + len(f.rejected) + len(f.cancelled) + len(f.deleted)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []types.Notification
}

func (n *recordingNotifier) Notify(notification types.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, notification)
	n.mu.Unlock()
}

func (n *recordingNotifier) Sent() []types.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Notification(nil), n.sent...)
}

func expiresIn(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func testOffer(status types.OfferStatus, role types.ViewerRole) types.Offer {
	return types.Offer{
		ID:        uuid.New(),
		Status:    status,
		Quantity:  10,
		UnitPrice: decimal.NewFromInt(850),
		Product: types.ProductSnapshot{
			ID:           uuid.New(),
			Name:         "Harina 25kg",
			CurrentStock: 100,
			PriceTiers: []types.PriceTier{
				{MinQuantity: 50, UnitPrice: decimal.NewFromInt(900)},
				{MinQuantity: 150, UnitPrice: decimal.NewFromInt(800)},
			},
			BasePrice: decimal.NewFromInt(1000),
		},
		Counterpart: types.Counterpart{ID: uuid.New(), Name: "Panadería Sur"},
		CreatedAt:   testNow.Add(-time.Hour),
		ExpiresAt:   expiresIn(72 * time.Hour),
		ViewerRole:  role,
	}
}
