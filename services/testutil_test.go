package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"resort-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.Resort{},
		&models.Unit{},
		&models.RefundPolicy{},
		&models.Reservation{},
		&models.ReservationUnit{},
		&models.PaymentTransaction{},
		&models.WebhookEvent{},
	))
	return db
}

// seedResort inserts one resort with two enabled rooms and returns them.
func seedResort(t *testing.T, db *gorm.DB) (models.Resort, []models.Unit) {
	t.Helper()

	resort := models.Resort{Name: "Vanavihari, Maredumilli", Code: "VM"}
	require.NoError(t, db.Create(&resort).Error)

	units := []models.Unit{
		{ResortID: resort.ID, Kind: models.UnitKindRoom, Number: "W-01", Name: "Woodpecker", Rate: 1000, MaxOccupancy: 2, Enabled: true},
		{ResortID: resort.ID, Kind: models.UnitKindRoom, Number: "W-02", Name: "Hornbill", Rate: 1500, MaxOccupancy: 3, Enabled: true},
	}
	require.NoError(t, db.Create(&units).Error)
	return resort, units
}

func newReservationService(db *gorm.DB) *ReservationService {
	return NewReservationService(db, NewAvailabilityService(db), NewMemorySequencer(), 15*time.Minute)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func holdRequest(resortID uint, unitIDs []uint, checkIn, checkOut string) *CreateHoldRequest {
	return &CreateHoldRequest{
		ResortID:   resortID,
		UnitIDs:    unitIDs,
		CheckIn:    day(checkIn),
		CheckOut:   day(checkOut),
		GuestName:  "Asha Rao",
		GuestEmail: "asha@example.com",
		GuestPhone: "+91-9000000001",
		Adults:     2,
	}
}

// stubGateway is an in-memory PaymentGateway. Encrypted blobs are opaque
// tokens resolved through the fields map; the signature is a fixed token so
// tests can flip verification on and off.
type stubGateway struct {
	mu          sync.Mutex
	orderCalls  int
	failOrder   bool
	fields      map[string]*CallbackFields
	nextOrderID int
}

func newStubGateway() *stubGateway {
	return &stubGateway{fields: map[string]*CallbackFields{}}
}

const stubSignature = "stub-sig"

func (g *stubGateway) EncryptAndSign(payload *OrderPayload) (string, string, error) {
	return "enc-req-" + payload.OrderID, stubSignature, nil
}

func (g *stubGateway) Verify(_, signature string) bool {
	return signature == stubSignature
}

func (g *stubGateway) Decrypt(encrypted string) (*CallbackFields, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.fields[encrypted]
	if !ok {
		return nil, fmt.Errorf("unknown blob %q", encrypted)
	}
	return f, nil
}

func (g *stubGateway) CreateOrder(_ context.Context, _, _, _ string, _ int64) (*OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orderCalls++
	if g.failOrder {
		return nil, &IntegrationError{Op: "create_order", StatusCode: 503, Body: "unavailable"}
	}
	g.nextOrderID++
	return &OrderResult{
		GatewayOrderID: fmt.Sprintf("GW-%04d", g.nextOrderID),
		ResponseData:   "enc-order-blob",
	}, nil
}

// seal registers a callback payload and returns its encrypted token plus the
// valid signature.
func (g *stubGateway) seal(fields *CallbackFields) (string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := fmt.Sprintf("enc-cb-%d", len(g.fields)+1)
	g.fields[token] = fields
	return token, stubSignature
}

// recordingNotifier counts confirmations synchronously.
type recordingNotifier struct {
	mu       sync.Mutex
	bookings []string
}

func (n *recordingNotifier) BookingConfirmed(reservation *models.Reservation, _ *models.PaymentTransaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, reservation.BookingID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bookings)
}
