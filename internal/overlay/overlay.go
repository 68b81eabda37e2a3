package overlay

import (
	"sync"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Overlay holds locally observed status overrides keyed by offer id. An
// entry that reached Paid is never overwritten.
type Overlay struct {
	mu          sync.RWMutex
	entries     map[uuid.UUID]types.OfferStatus
	tracked     func(uuid.UUID) bool
	unsubscribe func()
	logger      *zap.Logger
}

type Option func(*Overlay)

// WithMembership restricts writes to offers for which tracked returns true.
func WithMembership(tracked func(uuid.UUID) bool) Option {
	return func(o *Overlay) {
		o.tracked = tracked
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Overlay) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds an overlay and subscribes it to bus when bus is non-nil. Call
// Close to unsubscribe.
func New(bus *Bus, opts ...Option) *Overlay {
	o := &Overlay{
		entries: make(map[uuid.UUID]types.OfferStatus),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("overlay")

	if bus != nil {
		o.unsubscribe = bus.Subscribe(o.handle)
	}
	return o
}

func (o *Overlay) handle(payload events.OfferStatusPayload) {
	if payload.OfferID == uuid.Nil || payload.Status == "" {
		return
	}
	if o.tracked != nil && !o.tracked(payload.OfferID) {
		o.logger.Debug("ignoring event for untracked offer", zap.Stringer("offer_id", payload.OfferID))
		return
	}
	if !o.Set(payload.OfferID, payload.Status) {
		o.logger.Info("paid offer kept its status",
			zap.Stringer("offer_id", payload.OfferID), zap.String("status", string(payload.Status)))
	}
}

func (o *Overlay) Get(id uuid.UUID) (types.OfferStatus, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	status, ok := o.entries[id]
	return status, ok
}

// Set records status for id and reports whether the write happened.
func (o *Overlay) Set(id uuid.UUID, status types.OfferStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if isPaid(o.entries[id]) {
		return false
	}
	o.entries[id] = status
	return true
}

// RawStatus applies the merge rule: the overlay value when present,
// otherwise the canonical one.
func (o *Overlay) RawStatus(id uuid.UUID, canonical types.OfferStatus) types.OfferStatus {
	if status, ok := o.Get(id); ok {
		return status
	}
	return canonical
}

// Reconcile drops entries the canonical records have caught up with, and
// entries for offers no longer in canonical, and returns how many were
// dropped. Paid entries always stay.
func (o *Overlay) Reconcile(canonical map[uuid.UUID]types.OfferStatus) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	dropped := 0
	for id, observed := range o.entries {
		if isPaid(observed) {
			continue
		}
		current, ok := canonical[id]
		if !ok || supersedes(current, observed) {
			delete(o.entries, id)
			dropped++
		}
	}
	return dropped
}

func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}

func (o *Overlay) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
}

func isPaid(status types.OfferStatus) bool {
	if status == "" {
		return false
	}
	canonical, _ := domain.CanonicalStatus(string(status))
	return canonical == types.OfferStatusPaid
}

// progress orders the statuses an offer moves through on its way to
// payment. Rejected and cancelled end the offer and outrank all of them.
var progress = map[types.OfferStatus]int{
	types.OfferStatusPending:   0,
	types.OfferStatusApproved:  1,
	types.OfferStatusReserved:  2,
	types.OfferStatusPaid:      3,
	types.OfferStatusRejected:  4,
	types.OfferStatusCancelled: 4,
}

func supersedes(canonical, observed types.OfferStatus) bool {
	c, cKnown := domain.CanonicalStatus(string(canonical))
	v, vKnown := domain.CanonicalStatus(string(observed))
	if !cKnown || !vKnown {
		return false
	}
	cRank, ok := progress[c]
	if !ok {
		return false
	}
	vRank, ok := progress[v]
	if !ok {
		return false
	}
	return cRank >= vRank
}
