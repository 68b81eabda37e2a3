package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/internal/overlay"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultPurchaseWindow      = 24 * time.Hour
	DefaultCleanupNoticeWindow = 1500 * time.Millisecond
)

var (
	ErrOfferNotFound        = errors.New("offer not found")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrAcceptBlocked        = errors.New("offer cannot be accepted")
	ErrActionInFlight       = errors.New("an action is already running for this offer")
)

// BlockedError is returned by Accept when stock cannot cover the offer.
// The persistence collaborator is not called.
type BlockedError struct {
	Shortfall domain.StockShortfall
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %s (required=%d, available=%d)",
		ErrAcceptBlocked, e.Shortfall.Code, e.Shortfall.Required, e.Shortfall.Available)
}

func (e *BlockedError) Unwrap() error {
	return ErrAcceptBlocked
}

type Viewer struct {
	PrincipalID uuid.UUID
	Role        types.ViewerRole
}

type Options struct {
	PurchaseWindow      time.Duration
	CleanupNoticeWindow time.Duration
	Clock               func() time.Time
	Logger              *zap.Logger
}

// OfferService owns one viewer's offer list: the canonical collection, the
// optimistic overlay on top of it and the four status transitions.
type OfferService struct {
	viewer      Viewer
	offers      *OfferCollection
	overlay     *overlay.Overlay
	fetcher     Fetcher
	persistence Persistence
	notifier    Notifier
	cleanupGate *NoticeGate

	purchaseWindow time.Duration
	now            func() time.Time
	logger         *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]domain.Action
}

// NewOfferService subscribes the viewer's overlay to bus. Call Close when
// the list goes away.
func NewOfferService(viewer Viewer, fetcher Fetcher, persistence Persistence, notifier Notifier, bus *overlay.Bus, opts Options) *OfferService {
	if opts.PurchaseWindow <= 0 {
		opts.PurchaseWindow = DefaultPurchaseWindow
	}
	if opts.CleanupNoticeWindow <= 0 {
		opts.CleanupNoticeWindow = DefaultCleanupNoticeWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &OfferService{
		viewer:         viewer,
		offers:         NewOfferCollection(),
		fetcher:        fetcher,
		persistence:    persistence,
		notifier:       notifier,
		cleanupGate:    NewNoticeGate(opts.CleanupNoticeWindow),
		purchaseWindow: opts.PurchaseWindow,
		now:            opts.Clock,
		logger: opts.Logger.Named("offer_service").With(
			zap.Stringer("principal_id", viewer.PrincipalID), zap.String("role", string(viewer.Role))),
		inFlight: make(map[uuid.UUID]domain.Action),
	}
	s.overlay = overlay.New(bus, overlay.WithMembership(s.offers.Contains), overlay.WithLogger(opts.Logger))
	return s
}

func (s *OfferService) Close() {
	s.overlay.Close()
}

func (s *OfferService) Viewer() Viewer {
	return s.viewer
}

// Load replaces the collection with freshly fetched canonical offers. On a
// fetch error the previous collection stays and the error is returned as is.
func (s *OfferService) Load(ctx context.Context) error {
	records, err := s.fetcher.FetchOffers(ctx, s.viewer.PrincipalID, s.viewer.Role)
	if err != nil {
		return err
	}

	offers := make([]*domain.OfferAggregate, 0, len(records))
	canonical := make(map[uuid.UUID]types.OfferStatus, len(records))
	for _, record := range records {
		if record.ViewerRole == "" {
			record.ViewerRole = s.viewer.Role
		}
		offer, err := domain.NewOfferAggregate(record)
		if err != nil {
			s.logger.Warn("skipping invalid offer record", zap.Stringer("offer_id", record.ID), zap.Error(err))
			continue
		}
		offers = append(offers, offer)
		canonical[offer.ID] = offer.Status
	}

	s.offers.Replace(offers)
	if dropped := s.overlay.Reconcile(canonical); dropped > 0 {
		s.logger.Debug("overlay entries superseded", zap.Int("dropped", dropped))
	}
	s.logger.Info("offers loaded", zap.Int("count", len(offers)))
	return nil
}

// Replace seeds the collection directly, e.g. from a record set the caller
// already holds.
func (s *OfferService) Replace(offers []*domain.OfferAggregate) {
	s.offers.Replace(offers)
}

func (s *OfferService) FilteredOffers(filter StatusFilter) OfferList {
	return BuildOfferList(s.offers.Snapshot(), s.overlay, s.now(), filter)
}

func (s *OfferService) StatusCounts() StatusCounts {
	return s.FilteredOffers(FilterAll).Counts
}

func (s *OfferService) Offer(id uuid.UUID) (OfferView, error) {
	record, ok := s.offers.Get(id)
	if !ok {
		return OfferView{}, errors.Wrapf(ErrOfferNotFound, "offer %s", id)
	}
	return NewOfferView(record, s.overlay, s.now()), nil
}

func (s *OfferService) Feasibility(id uuid.UUID) (domain.Feasibility, error) {
	record, ok := s.offers.Get(id)
	if !ok {
		return domain.Feasibility{}, errors.Wrapf(ErrOfferNotFound, "offer %s", id)
	}
	return domain.CanAccept(&record), nil
}

// ResolvePrice prices quantity against the tier table of the offer's product.
func (s *OfferService) ResolvePrice(id uuid.UUID, quantity int) (domain.PriceResolution, error) {
	record, ok := s.offers.Get(id)
	if !ok {
		return domain.PriceResolution{}, errors.Wrapf(ErrOfferNotFound, "offer %s", id)
	}
	return domain.ResolveUnitPrice(record.Product, quantity), nil
}

// ObserveStatus records a locally observed status for id, as the checkout
// flow does through the bus.
func (s *OfferService) ObserveStatus(id uuid.UUID, status types.OfferStatus) bool {
	if !s.offers.Contains(id) {
		return false
	}
	return s.overlay.Set(id, status)
}

func (s *OfferService) Accept(ctx context.Context, id uuid.UUID) error {
	release, err := s.begin(id, domain.ActionAccept)
	if err != nil {
		return err
	}
	defer release()

	offer, err := s.current(id, domain.ActionAccept)
	if err != nil {
		return err
	}

	feasibility := domain.CanAccept(&offer)
	if !feasibility.Allowed {
		s.logger.Info("accept blocked",
			zap.Stringer("offer_id", id), zap.Int("required", feasibility.Reason.Required), zap.Int("available", feasibility.Reason.Available))
		return &BlockedError{Shortfall: *feasibility.Reason}
	}

	result, err := s.persistence.AcceptOffer(ctx, id)
	if err != nil {
		s.logger.Error("accept failed", zap.Stringer("offer_id", id), zap.Error(err))
		return errors.Wrap(err, "accept offer")
	}

	deadline := s.now().Add(s.purchaseWindow)
	if result.PurchaseDeadline != nil {
		deadline = *result.PurchaseDeadline
	}
	s.offers.Update(id, func(o *domain.OfferAggregate) {
		o.Approve(deadline)
	})
	// the store reserved the quantity; other offers on the product see less
	s.offers.AdjustStock(offer.Product.ID, -offer.Quantity)

	s.logger.Info("offer accepted", zap.Stringer("offer_id", id), zap.Time("purchase_deadline", deadline))
	s.notify(acceptedNotice(offer))
	return nil
}

func (s *OfferService) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	release, err := s.begin(id, domain.ActionReject)
	if err != nil {
		return err
	}
	defer release()

	offer, err := s.current(id, domain.ActionReject)
	if err != nil {
		return err
	}

	if err := s.persistence.RejectOffer(ctx, id, SanitizeReason(reason)); err != nil {
		s.logger.Error("reject failed", zap.Stringer("offer_id", id), zap.Error(err))
		return errors.Wrap(err, "reject offer")
	}

	s.offers.Update(id, func(o *domain.OfferAggregate) {
		o.Reject()
	})

	s.logger.Info("offer rejected", zap.Stringer("offer_id", id))
	s.notify(rejectedNotice(offer))
	return nil
}

func (s *OfferService) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	release, err := s.begin(id, domain.ActionCancel)
	if err != nil {
		return err
	}
	defer release()

	offer, err := s.current(id, domain.ActionCancel)
	if err != nil {
		return err
	}

	if err := s.persistence.CancelOffer(ctx, id, SanitizeReason(reason)); err != nil {
		s.logger.Error("cancel failed", zap.Stringer("offer_id", id), zap.Error(err))
		return errors.Wrap(err, "cancel offer")
	}

	s.offers.Update(id, func(o *domain.OfferAggregate) {
		o.Cancel()
	})
	if canonical, _ := domain.CanonicalStatus(string(offer.Status)); canonical == types.OfferStatusApproved {
		s.offers.AdjustStock(offer.Product.ID, offer.Quantity)
	}

	s.logger.Info("offer cancelled", zap.Stringer("offer_id", id))
	s.notify(cancelledNotice(offer))
	return nil
}

// Cleanup deletes a settled offer from the viewer's records. Every call
// removes its own offer; the notice is shown at most once per gate window.
func (s *OfferService) Cleanup(ctx context.Context, id uuid.UUID) error {
	release, err := s.begin(id, domain.ActionCleanup)
	if err != nil {
		return err
	}
	defer release()

	offer, err := s.current(id, domain.ActionCleanup)
	if err != nil {
		return err
	}

	if err := s.persistence.DeleteOffer(ctx, id, s.viewer.Role); err != nil {
		s.logger.Error("cleanup failed", zap.Stringer("offer_id", id), zap.Error(err))
		return errors.Wrap(err, "delete offer")
	}

	s.offers.Remove(id)
	s.logger.Info("offer removed", zap.Stringer("offer_id", id))

	if s.cleanupGate.Allow(s.now()) {
		s.notify(cleanupNotice(offer))
	}
	return nil
}

// begin marks id busy for the duration of one action so a repeated
// submission is refused instead of reaching persistence twice.
func (s *OfferService) begin(id uuid.UUID, action domain.Action) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if running, busy := s.inFlight[id]; busy {
		return nil, errors.Wrapf(ErrActionInFlight, "offer %s: %s running, %s refused", id, running, action)
	}
	s.inFlight[id] = action

	return func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}, nil
}

// InFlight reports the action currently running for id, if any.
func (s *OfferService) InFlight(id uuid.UUID) (domain.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, busy := s.inFlight[id]
	return action, busy
}

// current returns the offer and checks that action is legal for the
// viewer against its normalized status.
func (s *OfferService) current(id uuid.UUID, action domain.Action) (types.Offer, error) {
	offer, ok := s.offers.Get(id)
	if !ok {
		return types.Offer{}, errors.Wrapf(ErrOfferNotFound, "offer %s", id)
	}

	raw := s.overlay.RawStatus(id, offer.Status)
	status := domain.Normalize(string(raw), s.now(), &offer)
	if !domain.CanTransition(action, status, s.viewer.Role) {
		return types.Offer{}, errors.Wrapf(ErrTransitionNotAllowed, "%s %s offer as %s", action, status, s.viewer.Role)
	}
	return offer, nil
}

func (s *OfferService) notify(notification types.Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(notification)
}
