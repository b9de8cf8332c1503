package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"resort-backend/config"
	"resort-backend/controllers"
	"resort-backend/models"
	"resort-backend/routes"
	"resort-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const statusPageURL = "http://frontend.test/booking-status"

type fakeGateway struct {
	mu     sync.Mutex
	fields map[string]*services.CallbackFields
}

const fakeSignature = "valid-sig"

func (g *fakeGateway) EncryptAndSign(p *services.OrderPayload) (string, string, error) {
	return "enc-req-" + p.OrderID, fakeSignature, nil
}

func (g *fakeGateway) Verify(_, signature string) bool { return signature == fakeSignature }

func (g *fakeGateway) Decrypt(encrypted string) (*services.CallbackFields, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.fields[encrypted]
	if !ok {
		return nil, fmt.Errorf("unknown blob %q", encrypted)
	}
	return f, nil
}

func (g *fakeGateway) CreateOrder(context.Context, string, string, string, int64) (*services.OrderResult, error) {
	return &services.OrderResult{GatewayOrderID: "GW-1", ResponseData: "order-blob"}, nil
}

func (g *fakeGateway) seal(f *services.CallbackFields) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := fmt.Sprintf("blob-%d", len(g.fields)+1)
	g.fields[token] = f
	return token
}

type apiHarness struct {
	db      *gorm.DB
	router  *gin.Engine
	gateway *fakeGateway
	resort  models.Resort
	units   []models.Unit
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Resort{}, &models.Unit{}, &models.RefundPolicy{},
		&models.Reservation{}, &models.ReservationUnit{},
		&models.PaymentTransaction{}, &models.WebhookEvent{},
	))

	resort := models.Resort{Name: "Jungle Star, Valamuru", Code: "JS"}
	require.NoError(t, db.Create(&resort).Error)
	units := []models.Unit{
		{ResortID: resort.ID, Kind: models.UnitKindTent, Number: "T-01", Name: "Riverside Tent 1", Rate: 1500, MaxOccupancy: 2, Enabled: true},
	}
	require.NoError(t, db.Create(&units).Error)

	gateway := &fakeGateway{fields: map[string]*services.CallbackFields{}}
	availabilitySvc := services.NewAvailabilityService(db)
	reservationSvc := services.NewReservationService(db, availabilitySvc, services.NewMemorySequencer(), 15*time.Minute)
	gatewayCfg := config.GatewayConfig{
		MerchantID:    "M001",
		AccessCode:    "AC-TEST",
		WorkingKey:    "working-key-secret",
		SigningKey:    "signing-key-secret",
		OrderURL:      "http://gateway.test/order",
		SubmitURL:     "http://gateway.test/submit",
		RedirectURL:   "http://localhost:8080/api/payments/callback",
		StatusPageURL: statusPageURL,
		Timeout:       5 * time.Second,
	}
	paymentSvc := services.NewPaymentService(db, reservationSvc, gateway, gatewayCfg)
	callbackSvc := services.NewCallbackService(db, reservationSvc, gateway, nil)
	webhookSvc := services.NewWebhookService(db)
	sweeperSvc := services.NewSweeperService(db)

	router := routes.SetupRouter(
		controllers.NewReservationController(reservationSvc),
		controllers.NewPaymentController(paymentSvc, callbackSvc, statusPageURL),
		controllers.NewWebhookController(webhookSvc, callbackSvc),
		controllers.NewSweepController(sweeperSvc),
	)

	return &apiHarness{db: db, router: router, gateway: gateway, resort: resort, units: units}
}

func (h *apiHarness) do(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *apiHarness) createReservation(t *testing.T) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/reservations", gin.H{
		"resort_id":   h.resort.ID,
		"unit_ids":    []uint{h.units[0].ID},
		"check_in":    "2025-03-10",
		"check_out":   "2025-03-12",
		"guest_name":  "Ravi Kumar",
		"guest_email": "ravi@example.com",
		"guest_phone": "+91-9000000002",
		"adults":      2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			BookingID string `json:"booking_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.BookingID)
	return resp.Data.BookingID
}

func TestReservationEndpoints(t *testing.T) {
	h := newAPIHarness(t)

	bookingID := h.createReservation(t)

	w := h.do(t, http.MethodGet, "/api/reservations/"+bookingID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), bookingID)

	w = h.do(t, http.MethodGet, "/api/reservations/JS999999-9999-999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// overlapping request conflicts
	w = h.do(t, http.MethodPost, "/api/reservations", gin.H{
		"resort_id":   h.resort.ID,
		"unit_ids":    []uint{h.units[0].ID},
		"check_in":    "2025-03-11",
		"check_out":   "2025-03-13",
		"guest_name":  "Second Guest",
		"guest_email": "second@example.com",
		"guest_phone": "+91-9000000003",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, "/api/reservations/"+bookingID+"/cancel", gin.H{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cancelled")
}

func TestPaymentFlowOverHTTP(t *testing.T) {
	h := newAPIHarness(t)
	bookingID := h.createReservation(t)

	w := h.do(t, http.MethodPost, "/api/payments/initiate", gin.H{"booking_id": bookingID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "GW-1")

	blob := h.gateway.seal(&services.CallbackFields{
		OrderID:    bookingID,
		TrackingID: "TRK-HTTP-1",
		AuthStatus: "success",
	})

	form := url.Values{"encResp": {blob}, "signature": {fakeSignature}}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc.String(), statusPageURL))
	require.Equal(t, "success", loc.Query().Get("status"))
	require.Equal(t, bookingID, loc.Query().Get("bookingId"))

	var res models.Reservation
	require.NoError(t, h.db.Where("booking_id = ?", bookingID).First(&res).Error)
	require.Equal(t, models.ReservationStatusReserved, res.Status)
	require.Equal(t, models.PaymentStatusPaid, res.PaymentStatus)
}

func TestCallbackAlwaysRedirects(t *testing.T) {
	h := newAPIHarness(t)

	t.Run("forged signature", func(t *testing.T) {
		form := url.Values{"encResp": {"whatever"}, "signature": {"forged"}}
		req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code, "a guest must never see an error body")
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "failure", loc.Query().Get("status"))
	})

	t.Run("empty payload via GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/payments/callback", nil)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "pending", loc.Query().Get("status"))
	})
}

func TestWebhookAcknowledges(t *testing.T) {
	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"order_id":"JS000000-0000-000","auth_status":"success"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ack_id")

	var count int64
	require.NoError(t, h.db.Model(&models.WebhookEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAdminSweepEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	past := time.Now().UTC().Add(-time.Hour)
	res := models.Reservation{
		BookingID:     "JS010101-2501-001",
		ResortID:      h.resort.ID,
		Status:        models.ReservationStatusPreReserved,
		PaymentStatus: models.PaymentStatusUnpaid,
		CheckIn:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		ExpiresAt:     &past,
	}
	require.NoError(t, h.db.Create(&res).Error)

	w := h.do(t, http.MethodPost, "/api/admin/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"expired":1`)
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	w := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
