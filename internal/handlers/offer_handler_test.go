package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/overlay"
	"github.com/b2b-marketplace/offer-service/internal/repository"
	"github.com/b2b-marketplace/offer-service/internal/service"
	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app     *fiber.App
	handler *OfferHandler
	bus     *overlay.Bus
	small   uuid.UUID
	large   uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db))

	clock := func() time.Time { return handlerNow }
	store := repository.NewOfferStore(db, repository.DriverSQLite, repository.WithClock(clock))

	product := types.ProductSnapshot{
		ID:           uuid.New(),
		Name:         "Harina 25kg",
		CurrentStock: 50,
		BasePrice:    decimal.NewFromInt(1000),
		PriceTiers: []types.PriceTier{
			{MinQuantity: 50, UnitPrice: decimal.NewFromInt(900)},
			{MinQuantity: 150, UnitPrice: decimal.NewFromInt(800)},
		},
	}
	require.NoError(t, store.SaveProduct(ctx, product))

	fulfiller := uuid.New()
	expires := handlerNow.Add(72 * time.Hour)
	srv := &testServer{small: uuid.New(), large: uuid.New(), bus: overlay.NewBus()}
	for id, quantity := range map[uuid.UUID]int{srv.small: 20, srv.large: 80} {
		require.NoError(t, store.CreateOffer(ctx, repository.OfferRecord{
			ID:            id,
			ProductID:     product.ID,
			RequesterID:   uuid.New(),
			RequesterName: "Panadería Sur",
			FulfillerID:   fulfiller,
			FulfillerName: "Molino Norte",
			Quantity:      quantity,
			UnitPrice:     decimal.NewFromInt(850),
			CreatedAt:     handlerNow.Add(-time.Hour),
			ExpiresAt:     &expires,
		}))
	}

	offers := service.NewOfferService(
		service.Viewer{PrincipalID: fulfiller, Role: types.ViewerFulfiller},
		store, store, nil, srv.bus, service.Options{Clock: clock},
	)
	t.Cleanup(offers.Close)
	require.NoError(t, offers.Load(ctx))

	srv.handler = NewOfferHandler(offers, srv.bus, nil)
	srv.app = fiber.New()
	RegisterRoutes(srv.app.Group("/api/v1"), srv.handler)
	return srv
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, "GET", "/api/v1/health", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
}

func TestListOffers(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, "GET", "/api/v1/offers", "")
	require.Equal(t, fiber.StatusOK, status)

	var list OfferListResponse
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Equal(t, "all", list.Filter)
	assert.Equal(t, "none", list.Empty)
	assert.Len(t, list.Offers, 2)
	assert.Equal(t, 2, list.Counts.All)
	assert.Equal(t, 2, list.Counts.Count(types.OfferStatusPending))
	assert.Equal(t, 0, list.Counts.Count(types.OfferStatusPaid))

	status, body = srv.do(t, "GET", "/api/v1/offers?status=paid", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Equal(t, "filtered", list.Empty)
	assert.Empty(t, list.Offers)

	status, _ = srv.do(t, "GET", "/api/v1/offers?status=shipped", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAcceptBlockedReturnsShortfall(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, "POST", "/api/v1/offers/"+srv.large.String()+"/accept", "")

	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "ACCEPT_BLOCKED", body.Error.Code)
	assert.Equal(t, "InsufficientStock", body.Error.Details["code"])
	assert.Equal(t, float64(80), body.Error.Details["required"])
	assert.Equal(t, float64(50), body.Error.Details["available"])
}

func TestAcceptOffer(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, "POST", "/api/v1/offers/"+srv.small.String()+"/accept", "")
	require.Equal(t, fiber.StatusOK, status)

	var offer OfferResponse
	require.NoError(t, json.Unmarshal(body.Data, &offer))
	assert.Equal(t, "approved", offer.Status)
	assert.Equal(t, "Aceptada", offer.Label)
	assert.Equal(t, "24h 0m", offer.Remaining)
	assert.Equal(t, []string{"cleanup"}, offer.Actions)

	status, body = srv.do(t, "POST", "/api/v1/offers/"+srv.small.String()+"/accept", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "TRANSITION_NOT_ALLOWED", body.Error.Code)
}

func TestRejectAndCleanup(t *testing.T) {
	srv := newTestServer(t)
	path := "/api/v1/offers/" + srv.small.String()

	status, _ := srv.do(t, "DELETE", path, "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, body := srv.do(t, "POST", path+"/reject", `{"reason":"<i>price</i> too low"}`)
	require.Equal(t, fiber.StatusOK, status)
	var offer OfferResponse
	require.NoError(t, json.Unmarshal(body.Data, &offer))
	assert.Equal(t, "rejected", offer.Status)

	status, _ = srv.do(t, "DELETE", path, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = srv.do(t, "GET", path, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRejectWithMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, "POST", "/api/v1/offers/"+srv.small.String()+"/reject", `{"reason":`)

	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestResolvePrice(t *testing.T) {
	srv := newTestServer(t)
	path := "/api/v1/offers/" + srv.small.String() + "/price"

	status, body := srv.do(t, "GET", path+"?quantity=60", "")
	require.Equal(t, fiber.StatusOK, status)
	var price PriceResponse
	require.NoError(t, json.Unmarshal(body.Data, &price))
	assert.Equal(t, 60, price.Quantity)
	assert.True(t, decimal.NewFromInt(900).Equal(price.UnitPrice))
	assert.True(t, decimal.NewFromInt(54000).Equal(price.Total))
	assert.False(t, price.BelowMinimum)

	status, body = srv.do(t, "GET", path, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &price))
	assert.Equal(t, 20, price.Quantity)
	assert.True(t, price.BelowMinimum)

	status, body = srv.do(t, "GET", path+"?quantity=0", "")
	require.Equal(t, fiber.StatusOK, status)
	price = PriceResponse{}
	require.NoError(t, json.Unmarshal(body.Data, &price))
	assert.Equal(t, 0, price.Quantity)
	assert.True(t, price.BelowMinimum)
	assert.True(t, price.Total.IsZero())

	for _, raw := range []string{"-1", "abc"} {
		status, _ = srv.do(t, "GET", path+"?quantity="+raw, "")
		assert.Equal(t, fiber.StatusBadRequest, status, raw)
	}
}

func TestInvalidAndUnknownOfferIDs(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, "GET", "/api/v1/offers/not-a-uuid/feasibility", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = srv.do(t, "GET", "/api/v1/offers/"+uuid.NewString()+"/feasibility", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleOfferEventFeedsOverlay(t *testing.T) {
	srv := newTestServer(t)

	event, err := events.NewOfferEvent(srv.small, events.OfferStatusOptimisticEvent, checkoutService,
		events.OfferStatusPayload{OfferID: srv.small, Status: types.OfferStatusReserved})
	require.NoError(t, err)
	require.NoError(t, srv.handler.HandleOfferEvent(event))

	status, body := srv.do(t, "GET", "/api/v1/offers/"+srv.small.String(), "")
	require.Equal(t, fiber.StatusOK, status)
	var offer OfferResponse
	require.NoError(t, json.Unmarshal(body.Data, &offer))
	assert.Equal(t, "reserved", offer.Status)

	other, err := events.NewOfferEvent(srv.small, events.OfferNotificationEvent, serviceName, struct{}{})
	require.NoError(t, err)
	assert.NoError(t, srv.handler.HandleOfferEvent(other))

	broken := events.OfferEvent{ID: uuid.New(), EventType: events.OfferStatusOptimisticEvent, Payload: json.RawMessage(`{}`)}
	assert.Error(t, srv.handler.HandleOfferEvent(broken))
}
