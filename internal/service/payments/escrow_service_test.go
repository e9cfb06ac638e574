package payments

import (
	"context"
	"testing"

	"github.com/pawsit/pawsit/internal/domain"
	"github.com/pawsit/pawsit/internal/policy"
	"github.com/pawsit/pawsit/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Booking, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ConfirmPending(ctx context.Context, id, sitterID int64) (bool, error) {
	args := m.Called(ctx, id, sitterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) CancelByActor(ctx context.Context, id, actorID int64) (bool, error) {
	args := m.Called(ctx, id, actorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) AdvanceStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) AttachIntent(ctx context.Context, id int64, intentID string) (bool, error) {
	args := m.Called(ctx, id, intentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) SetPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) SetPaymentStatusByIntent(ctx context.Context, intentID string, to domain.PaymentStatus) error {
	args := m.Called(ctx, intentID, to)
	return args.Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetService(ctx context.Context, id int64) (*domain.ServiceListing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceListing), args.Error(1)
}

func (m *MockCatalogRepository) GetSitter(ctx context.Context, id int64) (*domain.Sitter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sitter), args.Error(1)
}

func (m *MockCatalogRepository) SetPayoutAccount(ctx context.Context, sitterID int64, accountID string) error {
	args := m.Called(ctx, sitterID, accountID)
	return args.Error(0)
}

type MockProcessorClient struct {
	mock.Mock
}

func (m *MockProcessorClient) CreateAccount(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockProcessorClient) CreateOnboardingLink(ctx context.Context, accountID, returnURL string) (string, error) {
	args := m.Called(ctx, accountID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *MockProcessorClient) CreateIntent(ctx context.Context, amountCents int64, destinationAccountID string, feePercent float64) (*processor.Intent, error) {
	args := m.Called(ctx, amountCents, destinationAccountID, feePercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Intent), args.Error(1)
}

func (m *MockProcessorClient) Capture(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockProcessorClient) Cancel(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockProcessorClient) Refund(ctx context.Context, intentID string, amountCents int64) error {
	args := m.Called(ctx, intentID, amountCents)
	return args.Error(0)
}

func (m *MockProcessorClient) VerifyWebhookSignature(rawBody []byte, signatureHeader string) (*processor.Event, error) {
	args := m.Called(rawBody, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Event), args.Error(1)
}

var _ processor.Client = (*MockProcessorClient)(nil)

func newEscrow(bookings *MockBookingRepository, catalog *MockCatalogRepository, client *MockProcessorClient) *EscrowService {
	return NewEscrowService(bookings, catalog, client, nil, 15, "https://pawsit.example/onboarded")
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID: 7, OwnerID: 1, SitterID: 2,
		TotalPriceCents: 5000,
		Status:          domain.BookingStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
	}
}

func heldBooking() *domain.Booking {
	intent := "pi_123"
	return &domain.Booking{
		ID: 7, OwnerID: 1, SitterID: 2,
		TotalPriceCents: 5000,
		Status:          domain.BookingStatusConfirmed,
		PaymentStatus:   domain.PaymentStatusHeld,
		PaymentIntentID: &intent,
	}
}

func TestCreateIntent_Success(t *testing.T) {
	bookings := &MockBookingRepository{}
	catalog := &MockCatalogRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, catalog, client)

	account := "acct_9"
	bookings.On("GetByID", mock.Anything, int64(7)).Return(pendingBooking(), nil)
	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, PayoutAccountID: &account, Policy: policy.PolicyFlexible}, nil)
	client.On("CreateIntent", mock.Anything, int64(5000), "acct_9", 15.0).
		Return(&processor.Intent{ID: "pi_123", ClientSecret: "cs_abc"}, nil)
	bookings.On("AttachIntent", mock.Anything, int64(7), "pi_123").Return(true, nil)

	result, err := svc.CreateIntent(context.Background(), 7, 1)
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", result.IntentID)
	assert.Equal(t, "cs_abc", result.ClientSecret)
	bookings.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestCreateIntent_WrongActor(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	bookings.On("GetByID", mock.Anything, int64(7)).Return(pendingBooking(), nil)

	_, err := svc.CreateIntent(context.Background(), 7, 2)
	var authErr *domain.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, "not_booking_owner", authErr.Reason)
}

func TestCreateIntent_ExistingIntentConflicts(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	bookings.On("GetByID", mock.Anything, int64(7)).Return(heldBooking(), nil)

	_, err := svc.CreateIntent(context.Background(), 7, 1)
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "intent_already_exists", conflictErr.Reason)
}

func TestCreateIntent_SitterNotOnboarded(t *testing.T) {
	bookings := &MockBookingRepository{}
	catalog := &MockCatalogRepository{}
	svc := newEscrow(bookings, catalog, &MockProcessorClient{})

	bookings.On("GetByID", mock.Anything, int64(7)).Return(pendingBooking(), nil)
	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, Policy: policy.PolicyFlexible}, nil)

	_, err := svc.CreateIntent(context.Background(), 7, 1)
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "sitter_not_onboarded", conflictErr.Reason)
}

func TestCreateIntent_ProcessorFailureLeavesLocalStateUntouched(t *testing.T) {
	bookings := &MockBookingRepository{}
	catalog := &MockCatalogRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, catalog, client)

	account := "acct_9"
	bookings.On("GetByID", mock.Anything, int64(7)).Return(pendingBooking(), nil)
	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, PayoutAccountID: &account}, nil)
	client.On("CreateIntent", mock.Anything, int64(5000), "acct_9", 15.0).
		Return(nil, assert.AnError)

	_, err := svc.CreateIntent(context.Background(), 7, 1)
	var procErr *domain.ProcessorError
	assert.ErrorAs(t, err, &procErr)
	bookings.AssertNotCalled(t, "AttachIntent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateIntent_LostRaceVoidsOrphanIntent(t *testing.T) {
	bookings := &MockBookingRepository{}
	catalog := &MockCatalogRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, catalog, client)

	account := "acct_9"
	bookings.On("GetByID", mock.Anything, int64(7)).Return(pendingBooking(), nil)
	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, PayoutAccountID: &account}, nil)
	client.On("CreateIntent", mock.Anything, int64(5000), "acct_9", 15.0).
		Return(&processor.Intent{ID: "pi_late", ClientSecret: "cs"}, nil)
	bookings.On("AttachIntent", mock.Anything, int64(7), "pi_late").Return(false, nil)
	client.On("Cancel", mock.Anything, "pi_late").Return(nil)

	_, err := svc.CreateIntent(context.Background(), 7, 1)
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	client.AssertCalled(t, "Cancel", mock.Anything, "pi_late")
}

func TestCapture_Success(t *testing.T) {
	bookings := &MockBookingRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, client)

	bookings.On("GetByID", mock.Anything, int64(7)).Return(heldBooking(), nil)
	client.On("Capture", mock.Anything, "pi_123").Return(nil)
	bookings.On("SetPaymentStatus", mock.Anything, int64(7), domain.PaymentStatusHeld, domain.PaymentStatusCaptured).Return(true, nil)

	assert.NoError(t, svc.Capture(context.Background(), 7, 1))
	client.AssertExpectations(t)
}

func TestCapture_SecondCallConflicts(t *testing.T) {
	bookings := &MockBookingRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, client)

	captured := heldBooking()
	captured.PaymentStatus = domain.PaymentStatusCaptured
	bookings.On("GetByID", mock.Anything, int64(7)).Return(captured, nil)

	err := svc.Capture(context.Background(), 7, 1)
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "payment_not_held", conflictErr.Reason)
	client.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
}

func TestCapture_StrangerRejected(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	bookings.On("GetByID", mock.Anything, int64(7)).Return(heldBooking(), nil)

	err := svc.Capture(context.Background(), 7, 99)
	var authErr *domain.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestCancelHeld_OwnerOnly(t *testing.T) {
	bookings := &MockBookingRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, client)

	bookings.On("GetByID", mock.Anything, int64(7)).Return(heldBooking(), nil)

	err := svc.CancelHeld(context.Background(), 7, 2)
	var authErr *domain.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, "not_booking_owner", authErr.Reason)

	client.On("Cancel", mock.Anything, "pi_123").Return(nil)
	bookings.On("SetPaymentStatus", mock.Anything, int64(7), domain.PaymentStatusHeld, domain.PaymentStatusCancelled).Return(true, nil)
	bookings.On("AdvanceStatus", mock.Anything, int64(7), domain.BookingStatusConfirmed, domain.BookingStatusCancelled).Return(true, nil)

	assert.NoError(t, svc.CancelHeld(context.Background(), 7, 1))
	client.AssertExpectations(t)
}

func TestCancelHeld_CancelsBookingRow(t *testing.T) {
	bookings := &MockBookingRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, client)

	bookings.On("GetByID", mock.Anything, int64(7)).Return(heldBooking(), nil)
	client.On("Cancel", mock.Anything, "pi_123").Return(nil)
	bookings.On("SetPaymentStatus", mock.Anything, int64(7), domain.PaymentStatusHeld, domain.PaymentStatusCancelled).Return(true, nil)
	bookings.On("AdvanceStatus", mock.Anything, int64(7), domain.BookingStatusConfirmed, domain.BookingStatusCancelled).Return(true, nil)

	assert.NoError(t, svc.CancelHeld(context.Background(), 7, 1))
	bookings.AssertCalled(t, "AdvanceStatus", mock.Anything, int64(7), domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
}

func TestCancelHeld_AlreadyCancelledBookingLeftAlone(t *testing.T) {
	bookings := &MockBookingRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, client)

	cancelled := heldBooking()
	cancelled.Status = domain.BookingStatusCancelled
	bookings.On("GetByID", mock.Anything, int64(7)).Return(cancelled, nil)
	client.On("Cancel", mock.Anything, "pi_123").Return(nil)
	bookings.On("SetPaymentStatus", mock.Anything, int64(7), domain.PaymentStatusHeld, domain.PaymentStatusCancelled).Return(true, nil)

	assert.NoError(t, svc.CancelHeld(context.Background(), 7, 1))
	bookings.AssertNotCalled(t, "AdvanceStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundCaptured_RequiresCapturedPayment(t *testing.T) {
	client := &MockProcessorClient{}
	svc := newEscrow(&MockBookingRepository{}, &MockCatalogRepository{}, client)

	err := svc.RefundCaptured(context.Background(), heldBooking(), 2500)
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "payment_not_captured", conflictErr.Reason)
	client.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundCaptured_PartialAmount(t *testing.T) {
	client := &MockProcessorClient{}
	svc := newEscrow(&MockBookingRepository{}, &MockCatalogRepository{}, client)

	captured := heldBooking()
	captured.PaymentStatus = domain.PaymentStatusCaptured
	client.On("Refund", mock.Anything, "pi_123", int64(2500)).Return(nil)

	assert.NoError(t, svc.RefundCaptured(context.Background(), captured, 2500))
	client.AssertExpectations(t)
}

func TestReconcile_IsIdempotent(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	bookings.On("SetPaymentStatusByIntent", mock.Anything, "pi_123", domain.PaymentStatusCaptured).Return(nil)

	event := &processor.Event{Type: "payment_intent.succeeded", IntentID: "pi_123"}
	assert.NoError(t, svc.Reconcile(context.Background(), event))
	assert.NoError(t, svc.Reconcile(context.Background(), event))
	bookings.AssertNumberOfCalls(t, "SetPaymentStatusByIntent", 2)
}

func TestReconcile_CanceledEvent(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	bookings.On("SetPaymentStatusByIntent", mock.Anything, "pi_123", domain.PaymentStatusCancelled).Return(nil)

	event := &processor.Event{Type: "payment_intent.canceled", IntentID: "pi_123"}
	assert.NoError(t, svc.Reconcile(context.Background(), event))
	bookings.AssertExpectations(t)
}

func TestReconcile_UnknownEventIgnored(t *testing.T) {
	bookings := &MockBookingRepository{}
	svc := newEscrow(bookings, &MockCatalogRepository{}, &MockProcessorClient{})

	event := &processor.Event{Type: "payment_intent.amount_capturable_updated", IntentID: "pi_123"}
	assert.NoError(t, svc.Reconcile(context.Background(), event))
	bookings.AssertNotCalled(t, "SetPaymentStatusByIntent", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboard_NewSitterCreatesAccount(t *testing.T) {
	catalog := &MockCatalogRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(&MockBookingRepository{}, catalog, client)

	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, Email: "sitter@example.com"}, nil)
	client.On("CreateAccount", mock.Anything, "sitter@example.com").Return("acct_new", nil)
	catalog.On("SetPayoutAccount", mock.Anything, int64(2), "acct_new").Return(nil)
	client.On("CreateOnboardingLink", mock.Anything, "acct_new", "https://pawsit.example/onboarded").
		Return("https://processor.example/onboard/1", nil)

	link, err := svc.Onboard(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, "https://processor.example/onboard/1", link)
	catalog.AssertExpectations(t)
}

func TestOnboard_ExistingAccountReusesIt(t *testing.T) {
	catalog := &MockCatalogRepository{}
	client := &MockProcessorClient{}
	svc := newEscrow(&MockBookingRepository{}, catalog, client)

	account := "acct_9"
	catalog.On("GetSitter", mock.Anything, int64(2)).
		Return(&domain.Sitter{ID: 2, Email: "sitter@example.com", PayoutAccountID: &account}, nil)
	client.On("CreateOnboardingLink", mock.Anything, "acct_9", "https://pawsit.example/onboarded").
		Return("https://processor.example/onboard/2", nil)

	_, err := svc.Onboard(context.Background(), 2)
	assert.NoError(t, err)
	client.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}
