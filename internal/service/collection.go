package service

import (
	"sync"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
)

// OfferCollection is the ordered, in-memory list of offers shown to one
// viewer.
type OfferCollection struct {
	mu     sync.RWMutex
	offers []*domain.OfferAggregate
}

func NewOfferCollection(offers ...*domain.OfferAggregate) *OfferCollection {
	c := &OfferCollection{}
	c.Replace(offers)
	return c
}

func (c *OfferCollection) Replace(offers []*domain.OfferAggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offers = append([]*domain.OfferAggregate(nil), offers...)
}

func (c *OfferCollection) Get(id uuid.UUID) (types.Offer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.offers[i].Snapshot(), true
	}
	return types.Offer{}, false
}

func (c *OfferCollection) Contains(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(id) >= 0
}

// Update applies fn to the offer in place. It reports false when id is no
// longer in the collection.
func (c *OfferCollection) Update(id uuid.UUID, fn func(*domain.OfferAggregate)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	fn(c.offers[i])
	return true
}

// AdjustStock moves the stock of productID by delta on every offer that
// references it and returns how many offers changed. Stock never goes below
// zero.
func (c *OfferCollection) AdjustStock(productID uuid.UUID, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0
	for _, offer := range c.offers {
		if offer.Product.ID != productID {
			continue
		}
		stock := offer.Product.CurrentStock + delta
		if stock < 0 {
			stock = 0
		}
		offer.Product.CurrentStock = stock
		changed++
	}
	return changed
}

func (c *OfferCollection) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.offers = append(c.offers[:i], c.offers[i+1:]...)
	return true
}

func (c *OfferCollection) Snapshot() []types.Offer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Offer, len(c.offers))
	for i, offer := range c.offers {
		out[i] = offer.Snapshot()
	}
	return out
}

func (c *OfferCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.offers)
}

func (c *OfferCollection) indexOf(id uuid.UUID) int {
	for i, offer := range c.offers {
		if offer.ID == id {
			return i
		}
	}
	return -1
}
