package handlers

import (
	"strconv"

	"github.com/b2b-marketplace/offer-service/internal/overlay"
	"github.com/b2b-marketplace/offer-service/internal/repository"
	"github.com/b2b-marketplace/offer-service/internal/service"
	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	sharedHTTP "github.com/b2b-marketplace/offer-service/shared-domain/http"
	"github.com/b2b-marketplace/offer-service/shared-domain/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	serviceName     = "offer-service"
	checkoutService = "checkout-service"
)

type OfferHandler struct {
	offers *service.OfferService
	bus    *overlay.Bus
	logger *zap.Logger
}

func NewOfferHandler(offers *service.OfferService, bus *overlay.Bus, logger *zap.Logger) *OfferHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferHandler{
		offers: offers,
		bus:    bus,
		logger: logger.Named("offer_handler"),
	}
}

// RegisterRoutes mounts the offer board under router, e.g. /api/v1.
func RegisterRoutes(router fiber.Router, h *OfferHandler) {
	router.Get("/health", h.HealthCheck)

	offers := router.Group("/offers")
	offers.Get("/", h.ListOffers)                 // GET /api/v1/offers?status=
	offers.Get("/counts", h.StatusCounts)         // GET /api/v1/offers/counts
	offers.Post("/refresh", h.Refresh)            // POST /api/v1/offers/refresh
	offers.Get("/:id", h.GetOffer)                // GET /api/v1/offers/:id
	offers.Get("/:id/feasibility", h.Feasibility) // GET /api/v1/offers/:id/feasibility
	offers.Get("/:id/price", h.ResolvePrice)      // GET /api/v1/offers/:id/price?quantity=
	offers.Post("/:id/accept", h.AcceptOffer)     // POST /api/v1/offers/:id/accept
	offers.Post("/:id/reject", h.RejectOffer)     // POST /api/v1/offers/:id/reject
	offers.Post("/:id/cancel", h.CancelOffer)     // POST /api/v1/offers/:id/cancel
	offers.Delete("/:id", h.CleanupOffer)         // DELETE /api/v1/offers/:id
}

func (h *OfferHandler) HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Offer service is healthy", map[string]interface{}{
		"service": serviceName,
		"status":  "healthy",
		"role":    h.offers.Viewer().Role,
	})
}

func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	filter, err := service.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid status filter", map[string]interface{}{
			"status": c.Query("status"),
		})
	}

	return sharedHTTP.SuccessResponse(c, "Offers retrieved successfully", mapOfferList(h.offers.FilteredOffers(filter)))
}

func (h *OfferHandler) StatusCounts(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Offer counts retrieved successfully", h.offers.StatusCounts())
}

func (h *OfferHandler) Refresh(c *fiber.Ctx) error {
	if err := h.offers.Load(c.UserContext()); err != nil {
		h.logger.Error("offers refresh failed", zap.Error(err))
		return sharedHTTP.InternalServerErrorResponse(c, "Offers refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return sharedHTTP.SuccessResponse(c, "Offers refreshed successfully", h.offers.StatusCounts())
}

func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	view, err := h.offers.Offer(id)
	if err != nil {
		return h.failure(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Offer retrieved successfully", mapOffer(view))
}

func (h *OfferHandler) Feasibility(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	feasibility, err := h.offers.Feasibility(id)
	if err != nil {
		return h.failure(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Feasibility evaluated", feasibility)
}

func (h *OfferHandler) ResolvePrice(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	offer, err := h.offers.Offer(id)
	if err != nil {
		return h.failure(c, err)
	}

	quantity := offer.Quantity
	if raw := c.Query("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q < 0 {
			return sharedHTTP.BadRequestResponse(c, "Invalid quantity", map[string]interface{}{
				"quantity": raw,
			})
		}
		quantity = q
	}

	resolution, err := h.offers.ResolvePrice(id, quantity)
	if err != nil {
		return h.failure(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Price resolved", mapPrice(quantity, resolution))
}

func (h *OfferHandler) AcceptOffer(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	if err := h.offers.Accept(c.UserContext(), id); err != nil {
		return h.failure(c, err)
	}
	return h.respondWithOffer(c, id, "Offer accepted successfully")
}

func (h *OfferHandler) RejectOffer(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	request, err := parseReason(c)
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := h.offers.Reject(c.UserContext(), id, request.Reason); err != nil {
		return h.failure(c, err)
	}
	return h.respondWithOffer(c, id, "Offer rejected successfully")
}

func (h *OfferHandler) CancelOffer(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	request, err := parseReason(c)
	if err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := h.offers.Cancel(c.UserContext(), id, request.Reason); err != nil {
		return h.failure(c, err)
	}
	return h.respondWithOffer(c, id, "Offer cancelled successfully")
}

func (h *OfferHandler) CleanupOffer(c *fiber.Ctx) error {
	id, err := offerID(c)
	if err != nil {
		return invalidOfferID(c)
	}

	if err := h.offers.Cleanup(c.UserContext(), id); err != nil {
		return h.failure(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Offer removed successfully", map[string]interface{}{
		"id": id,
	})
}

// StartConsuming feeds checkout status events from RabbitMQ into the overlay
// bus.
func (h *OfferHandler) StartConsuming(consumer *messaging.Consumer) error {
	routingKeys := []string{
		messaging.RoutingKey(checkoutService, string(events.OfferStatusOptimisticEvent)),
	}

	return consumer.ConsumeEvents(routingKeys, h.HandleOfferEvent)
}

// HandleOfferEvent publishes optimistic status events on the bus. Other
// event types are acknowledged and dropped.
func (h *OfferHandler) HandleOfferEvent(event events.OfferEvent) error {
	if event.EventType != events.OfferStatusOptimisticEvent {
		h.logger.Debug("ignoring event", zap.String("event_type", string(event.EventType)))
		return nil
	}

	payload, err := event.StatusPayload()
	if err != nil {
		return errors.Wrap(err, "status payload")
	}
	if payload.OfferID == uuid.Nil || payload.Status == "" {
		return errors.Errorf("status event %s without offer id or status", event.ID)
	}

	h.logger.Debug("optimistic status received",
		zap.Stringer("offer_id", payload.OfferID), zap.String("status", string(payload.Status)))
	h.bus.Publish(payload)
	return nil
}

func (h *OfferHandler) respondWithOffer(c *fiber.Ctx, id uuid.UUID, message string) error {
	view, err := h.offers.Offer(id)
	if err != nil {
		return h.failure(c, err)
	}
	return sharedHTTP.SuccessResponse(c, message, mapOffer(view))
}

func (h *OfferHandler) failure(c *fiber.Ctx, err error) error {
	var blocked *service.BlockedError
	switch {
	case errors.As(err, &blocked):
		return sharedHTTP.ConflictResponse(c, "ACCEPT_BLOCKED", "Not enough stock to accept this offer", map[string]interface{}{
			"code":      blocked.Shortfall.Code,
			"required":  blocked.Shortfall.Required,
			"available": blocked.Shortfall.Available,
		})
	case errors.Is(err, service.ErrOfferNotFound), errors.Is(err, repository.ErrOfferNotFound):
		return sharedHTTP.NotFoundResponse(c, "Offer not found")
	case errors.Is(err, service.ErrTransitionNotAllowed), errors.Is(err, repository.ErrStatusConflict):
		return sharedHTTP.ConflictResponse(c, "TRANSITION_NOT_ALLOWED", "Offer status does not allow this action", nil)
	case errors.Is(err, service.ErrActionInFlight):
		return sharedHTTP.ConflictResponse(c, "ACTION_IN_FLIGHT", "Another action is running for this offer", nil)
	case errors.Is(err, repository.ErrInsufficientStock):
		return sharedHTTP.ConflictResponse(c, "INSUFFICIENT_STOCK", "Not enough stock to accept this offer", nil)
	}

	h.logger.Error("offer action failed", zap.Error(err))
	return sharedHTTP.InternalServerErrorResponse(c, "Offer action failed", map[string]interface{}{
		"error": err.Error(),
	})
}

func offerID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func invalidOfferID(c *fiber.Ctx) error {
	return sharedHTTP.BadRequestResponse(c, "Invalid offer ID", map[string]interface{}{
		"offer_id": c.Params("id"),
	})
}

func parseReason(c *fiber.Ctx) (ReasonRequest, error) {
	var request ReasonRequest
	if len(c.Body()) == 0 {
		return request, nil
	}
	err := c.BodyParser(&request)
	return request, err
}
