package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/internal/database"
	"github.com/smarttransit/seat-booking-backend/internal/models"
	"github.com/smarttransit/seat-booking-backend/pkg/events"
	"github.com/smarttransit/seat-booking-backend/pkg/payment"
	"github.com/stretchr/testify/require"
)

const testSecret = "rzp_test_secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(models.BookingEvent); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []models.BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.BookingEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type capturingNotifier struct {
	sent chan string
}

func (n *capturingNotifier) SendMessage(ctx context.Context, phone, message string) error {
	n.sent <- phone + ":" + message
	return nil
}

func (n *capturingNotifier) Name() string { return "capture" }

type testEnv struct {
	store       *database.MemoryStore
	clock       *Clock
	publisher   *recordingPublisher
	notifier    *capturingNotifier
	reservation *ReservationService
	payments    *PaymentService
	lifecycle   *LifecycleService
	reports     *ReportService
	fleet       *FleetService
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestEnv wires every service over the memory store with "today" = 2025-05-30
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := quietLogger()
	store := database.NewMemoryStore()
	clock := NewFixedClock(time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	publisher := &recordingPublisher{}
	notifier := &capturingNotifier{sent: make(chan string, 16)}

	env := &testEnv{
		store:       store,
		clock:       clock,
		publisher:   publisher,
		notifier:    notifier,
		reservation: NewReservationService(store.Buses, store.Bookings, nil, publisher, logger),
		payments: NewPaymentService(store.Bookings, store.Audits, payment.NewDevGateway(), nil, publisher, notifier, clock,
			PaymentConfig{KeySecret: testSecret, Currency: "INR"}, logger),
		lifecycle: NewLifecycleService(store.Bookings, store.Buses, nil, publisher, clock, "INR", logger),
		reports:   NewReportService(store.Bookings, clock, logger),
		fleet:     NewFleetService(store.Buses, logger),
	}

	require.NoError(t, store.Buses.Create(context.Background(), &models.Bus{
		ID: "B1", Name: "Night Rider", Registration: "MH-12-AB-1234", Origin: "Pune", Destination: "Goa",
		DepartureTime: "21:30", Price: 280, Capacity: 40,
	}))
	return env
}

func testCustomer() models.Customer {
	return models.Customer{Email: "asha@example.com", Name: "Asha", Phone: "9876543210"}
}

func (e *testEnv) reserve(t *testing.T, date string, seats ...int) *models.Booking {
	t.Helper()
	b, err := e.reservation.InitReservation(context.Background(), InitReservationInput{
		BusID: "B1", SeatNumbers: seats, TravelDate: date, Customer: testCustomer(),
	})
	require.NoError(t, err)
	return b
}

func signedVerify(bookingID, orderID, paymentID string) VerifyInput {
	return VerifyInput{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: payment.Sign(testSecret, orderID, paymentID),
		BookingID: bookingID,
	}
}

func (e *testEnv) pay(t *testing.T, b *models.Booking) *models.Booking {
	t.Helper()
	res, err := e.payments.VerifyAndFinalize(context.Background(), signedVerify(b.ID, "order_"+b.ID[:8], "pay_"+b.ID[:8]), models.RequestMeta{})
	require.NoError(t, err)
	return res.Booking
}
