package activation

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockCommunityRepository struct {
	mock.Mock
}

var _ ports.CommunityRepository = (*MockCommunityRepository)(nil)

func (m *MockCommunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Community, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Community), args.Error(1)
}

func (m *MockCommunityRepository) Create(ctx context.Context, community *domain.Community) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

type MockLinkedAccountRepository struct {
	mock.Mock
}

var _ ports.LinkedAccountRepository = (*MockLinkedAccountRepository)(nil)

func (m *MockLinkedAccountRepository) GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*domain.LinkedAccountRecord, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedAccountRecord), args.Error(1)
}

func (m *MockLinkedAccountRepository) Upsert(ctx context.Context, record *domain.LinkedAccountRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLinkedAccountRepository) Delete(ctx context.Context, communityID uuid.UUID, resetTo domain.KycStatus) error {
	args := m.Called(ctx, communityID, resetTo)
	return args.Error(0)
}

type MockKycFieldRepository struct {
	mock.Mock
}

var _ ports.KycFieldRepository = (*MockKycFieldRepository)(nil)

func (m *MockKycFieldRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KycFields, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KycFields), args.Error(1)
}

func (m *MockKycFieldRepository) Upsert(ctx context.Context, fields *domain.KycFields) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

func (m *MockKycFieldRepository) ClearIdentity(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

var _ ports.VerificationProvider = (*MockProvider)(nil)

func (m *MockProvider) Environment() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) OnboardingURL(accountID string) string {
	args := m.Called(accountID)
	return args.String(0)
}

func (m *MockProvider) CreateAccount(ctx context.Context, req ports.AccountRequest, idemKey string) (*ports.Account, error) {
	args := m.Called(ctx, req, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Account), args.Error(1)
}

func (m *MockProvider) FetchAccount(ctx context.Context, accountID string) (*ports.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Account), args.Error(1)
}

func (m *MockProvider) ListStakeholders(ctx context.Context, accountID string) ([]ports.Stakeholder, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Stakeholder), args.Error(1)
}

func (m *MockProvider) CreateStakeholder(ctx context.Context, accountID string, req ports.StakeholderRequest, idemKey string) (*ports.Stakeholder, error) {
	args := m.Called(ctx, accountID, req, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Stakeholder), args.Error(1)
}

func (m *MockProvider) RequestProduct(ctx context.Context, accountID string, idemKey string) (*ports.Product, error) {
	args := m.Called(ctx, accountID, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Product), args.Error(1)
}

func (m *MockProvider) FetchProduct(ctx context.Context, accountID, productID string) (*ports.Product, error) {
	args := m.Called(ctx, accountID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Product), args.Error(1)
}

func (m *MockProvider) UpdateProduct(ctx context.Context, accountID, productID string, settlement ports.SettlementRequest, idemKey string) (*ports.Product, error) {
	args := m.Called(ctx, accountID, productID, settlement, idemKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Product), args.Error(1)
}

func (m *MockProvider) UploadDocument(ctx context.Context, accountID, docType string, doc domain.Document, idemKey string) error {
	args := m.Called(ctx, accountID, docType, doc, idemKey)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

var _ ports.EventBus = (*MockEventBus)(nil)

func (m *MockEventBus) Publish(ctx context.Context, topic string, data interface{}) error {
	args := m.Called(ctx, topic, data)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(topic string, handler ports.EventHandler) {
	m.Called(topic, handler)
}

// --- Fixtures ---

type testEnv struct {
	svc         *Service
	communities *MockCommunityRepository
	accounts    *MockLinkedAccountRepository
	fields      *MockKycFieldRepository
	provider    *MockProvider
	bus         *MockEventBus

	communityID uuid.UUID
	caller      Caller
	bank        domain.BankDetails
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	nopLogger := zerolog.Nop()

	env := &testEnv{
		communities: new(MockCommunityRepository),
		accounts:    new(MockLinkedAccountRepository),
		fields:      new(MockKycFieldRepository),
		provider:    new(MockProvider),
		bus:         new(MockEventBus),
		communityID: uuid.New(),
	}
	env.caller = Caller{ID: uuid.New(), Email: "jane@example.com", Name: "Jane Doe"}
	env.bank = domain.BankDetails{
		AccountNumber:   "123456789012",
		RoutingCode:     "ABCD0123456",
		BeneficiaryName: "Jane Doe",
	}
	env.svc = New(env.communities, env.accounts, env.fields, env.provider, env.bus, nil, &nopLogger)
	return env
}

func (env *testEnv) community(status domain.KycStatus) *domain.Community {
	return &domain.Community{
		ID:        env.communityID,
		OwnerID:   env.caller.ID,
		Name:      "Indie Makers Pune",
		KycStatus: status,
	}
}

func (env *testEnv) completeFields() *domain.KycFields {
	strPtr := func(s string) *string { return &s }
	dob := time.Date(1992, 4, 17, 0, 0, 0, 0, time.UTC)
	return &domain.KycFields{
		UserID:      env.caller.ID,
		Phone:       strPtr("9876543210"),
		Street1:     strPtr("14 MG Road"),
		City:        strPtr("Pune"),
		State:       strPtr("Maharashtra"),
		PostalCode:  strPtr("411001"),
		TaxID:       strPtr("ABCDE1234F"),
		DateOfBirth: &dob,
	}
}

func (env *testEnv) expectOwnership(status domain.KycStatus) {
	env.communities.On("GetByID", mock.Anything, env.communityID).Return(env.community(status), nil)
}

func (env *testEnv) expectCompleteFields() {
	env.fields.On("GetByUserID", mock.Anything, env.caller.ID).Return(env.completeFields(), nil)
}

func (env *testEnv) allowPersistence() {
	env.accounts.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	env.bus.On("Publish", mock.Anything, domain.TopicKycStatusChanged, mock.Anything).Return(nil)
}

func reviewProduct(id string, status string) *ports.Product {
	return &ports.Product{
		ID:               id,
		ActivationStatus: status,
		Settlement: &ports.Settlement{
			AccountNumber:   "123456789012",
			RoutingCode:     "ABCD0123456",
			BeneficiaryName: "Jane Doe",
		},
	}
}

// --- Tests ---

// Happy path: full pipeline, provider answers "under review", community
// ends up PENDING with no error.
func TestSubmitActivation_UnderReview(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()
	env.allowPersistence()

	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.Account{ID: "acc_FreshOne12345", Status: "created"}, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_FreshOne12345").
		Return([]ports.Stakeholder{}, nil)
	env.provider.On("CreateStakeholder", mock.Anything, "acc_FreshOne12345", mock.Anything, mock.Anything).
		Return(&ports.Stakeholder{ID: "sth_Owner9876543"}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_FreshOne12345", mock.Anything).
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusRequested), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_FreshOne12345", "prod_Route123456", mock.Anything, mock.Anything).
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusUnderReview), nil)
	env.provider.On("FetchProduct", mock.Anything, "acc_FreshOne12345", "prod_Route123456").
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusUnderReview), nil)

	result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.KycPending, result.Status)
	assert.False(t, result.ManualSetup)

	// Every persisted version of the record carries only the masked suffix.
	for _, call := range env.accounts.Calls {
		if call.Method != "Upsert" {
			continue
		}
		record := call.Arguments.Get(1).(*domain.LinkedAccountRecord)
		assert.Equal(t, "9012", record.MaskedAccount)
		assert.NotContains(t, record.ErrorReason, "123456789012")
	}
}

// A stored tax id that fails structural validation is rejected before any
// provider call, tagged to the tax-id step.
func TestSubmitActivation_InvalidTaxID_NoNetworkCall(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)

	fields := env.completeFields()
	badTaxID := "INVALID123"
	fields.TaxID = &badTaxID
	env.fields.On("GetByUserID", mock.Anything, env.caller.ID).Return(fields, nil)

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.Error(t, err)
	wfErr, ok := domain.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeValidation, wfErr.Code)
	assert.Equal(t, "tax_id", wfErr.Field)
	assert.Equal(t, domain.StepTaxID, wfErr.Step)

	env.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
	env.accounts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// Mismatched beneficiary confirmation fails fast too.
func TestSubmitActivation_BeneficiaryConfirmMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Do", nil)

	wfErr, ok := domain.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, "beneficiary_name", wfErr.Field)
	assert.Equal(t, domain.StepBank, wfErr.Step)
	env.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

// An already activated community short-circuits without touching the
// provider; repeat invocations keep answering the same thing.
func TestSubmitActivation_AlreadyActivated_ShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycActivated)
	env.expectCompleteFields()

	record := &domain.LinkedAccountRecord{
		CommunityID: env.communityID,
		AccountID:   "acc_Existing1234",
		Status:      domain.KycActivated,
	}
	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(record, nil)

	for i := 0; i < 2; i++ {
		result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.KycActivated, result.Status)
	}

	env.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
	env.accounts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// A second caller arriving while an attempt is with the provider observes
// the in-flight record and gets "wait"; no duplicate account. This covers
// both an IN_PROGRESS record whose pipeline ran to completion and a
// PENDING one awaiting review.
func TestSubmitActivation_InFlight_ReturnsWait(t *testing.T) {
	productID := "prod_Existing123"
	cases := []struct {
		name   string
		status domain.KycStatus
	}{
		{"completed pipeline", domain.KycInProgress},
		{"under review", domain.KycPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.expectOwnership(tc.status)
			env.expectCompleteFields()

			record := &domain.LinkedAccountRecord{
				CommunityID: env.communityID,
				AccountID:   "acc_MidFlight123",
				ProductID:   &productID,
				Status:      tc.status,
			}
			env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(record, nil)

			result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

			require.NoError(t, err)
			assert.Equal(t, tc.status, result.Status)
			env.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
			env.accounts.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

// An IN_PROGRESS record with no settlement product is a pipeline that
// died between account creation and product configuration. Resubmitting
// picks it up where it stopped: no new provider account, the remaining
// steps run under the same attempt so their idempotency keys match, and
// the attempt lands in PENDING like any other.
func TestSubmitActivation_AbandonedPipeline_Resumes(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycInProgress)
	env.expectCompleteFields()
	env.allowPersistence()

	crashed := &domain.LinkedAccountRecord{
		CommunityID: env.communityID,
		AccountID:   "acc_HalfDone1234",
		Status:      domain.KycInProgress,
		Attempt:     1,
	}
	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(crashed, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_HalfDone1234").
		Return([]ports.Stakeholder{}, nil)
	env.provider.On("CreateStakeholder", mock.Anything, "acc_HalfDone1234", mock.Anything, mock.Anything).
		Return(&ports.Stakeholder{ID: "sth_Resumed12345"}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_HalfDone1234", "request_product-"+env.communityID.String()+"-1").
		Return(reviewProduct("prod_Resumed1234", ports.ProviderStatusRequested), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_HalfDone1234", "prod_Resumed1234", mock.Anything, mock.Anything).
		Return(reviewProduct("prod_Resumed1234", ports.ProviderStatusUnderReview), nil)
	env.provider.On("FetchProduct", mock.Anything, "acc_HalfDone1234", "prod_Resumed1234").
		Return(reviewProduct("prod_Resumed1234", ports.ProviderStatusUnderReview), nil)

	result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.KycPending, result.Status)
	env.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)

	// The original account id and attempt number survive the resume.
	for _, call := range env.accounts.Calls {
		if call.Method != "Upsert" {
			continue
		}
		record := call.Arguments.Get(1).(*domain.LinkedAccountRecord)
		assert.Equal(t, "acc_HalfDone1234", record.AccountID)
		assert.Equal(t, 1, record.Attempt)
	}
}

// Duplicate-account conflict: the orchestrator adopts the account id
// embedded in the provider's error payload instead of failing.
func TestSubmitActivation_ConflictAdoptsExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()
	env.allowPersistence()

	conflict := &ports.ProviderError{
		Kind:              ports.KindConflict,
		ExistingAccountID: "acc_AlreadyThere1",
		Description:       "Merchant already exists for this email",
	}
	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil, conflict)
	env.provider.On("ListStakeholders", mock.Anything, "acc_AlreadyThere1").
		Return([]ports.Stakeholder{{ID: "sth_Existing1234"}}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_AlreadyThere1", mock.Anything).
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusUnderReview), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_AlreadyThere1", "prod_Route123456", mock.Anything, mock.Anything).
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusUnderReview), nil)
	env.provider.On("FetchProduct", mock.Anything, "acc_AlreadyThere1", "prod_Route123456").
		Return(reviewProduct("prod_Route123456", ports.ProviderStatusUnderReview), nil)

	result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.KycPending, result.Status)

	var persistedIDs []string
	for _, call := range env.accounts.Calls {
		if call.Method == "Upsert" {
			persistedIDs = append(persistedIDs, call.Arguments.Get(1).(*domain.LinkedAccountRecord).AccountID)
		}
	}
	require.NotEmpty(t, persistedIDs)
	for _, id := range persistedIDs {
		assert.Equal(t, "acc_AlreadyThere1", id)
	}
}

// A terminally failed record is discarded and a fresh account is created;
// the rejected account id is never reused.
func TestSubmitActivation_AfterRejection_CreatesFreshAccount(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycRejected)
	env.expectCompleteFields()
	env.allowPersistence()

	rejected := &domain.LinkedAccountRecord{
		CommunityID: env.communityID,
		AccountID:   "acc_Rejected1234",
		Status:      domain.KycRejected,
	}
	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(rejected, nil)
	env.accounts.On("Delete", mock.Anything, env.communityID, domain.KycNotStarted).Return(nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.Account{ID: "acc_SecondTry123", Status: "created"}, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_SecondTry123").
		Return([]ports.Stakeholder{{ID: "sth_Fresh1234567"}}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_SecondTry123", mock.Anything).
		Return(reviewProduct("prod_Second12345", ports.ProviderStatusUnderReview), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_SecondTry123", "prod_Second12345", mock.Anything, mock.Anything).
		Return(reviewProduct("prod_Second12345", ports.ProviderStatusUnderReview), nil)
	env.provider.On("FetchProduct", mock.Anything, "acc_SecondTry123", "prod_Second12345").
		Return(reviewProduct("prod_Second12345", ports.ProviderStatusUnderReview), nil)

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)
	require.NoError(t, err)

	env.accounts.AssertCalled(t, "Delete", mock.Anything, env.communityID, domain.KycNotStarted)
	for _, call := range env.accounts.Calls {
		if call.Method == "Upsert" {
			assert.NotEqual(t, "acc_Rejected1234", call.Arguments.Get(1).(*domain.LinkedAccountRecord).AccountID)
		}
	}

	// The first published transition reports where the community actually
	// came from, not a fabricated NOT_STARTED.
	var intoProgress *domain.StatusChangedEvent
	for _, call := range env.bus.Calls {
		if call.Method != "Publish" {
			continue
		}
		event := call.Arguments.Get(2).(domain.StatusChangedEvent)
		if event.To == domain.KycInProgress {
			intoProgress = &event
			break
		}
	}
	require.NotNil(t, intoProgress)
	assert.Equal(t, domain.KycRejected, intoProgress.From)
}

// Access denied while managing stakeholders resolves to the manual-setup
// path: PENDING with a hosted onboarding URL, not a failure.
func TestSubmitActivation_AccessDenied_ManualSetup(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()
	env.allowPersistence()

	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.Account{ID: "acc_NoAccess1234", Status: "created"}, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_NoAccess1234").
		Return(nil, &ports.ProviderError{Kind: ports.KindAccessDenied, Description: "Access denied for this merchant"})
	env.provider.On("OnboardingURL", "acc_NoAccess1234").
		Return("https://dashboard.example.com/acc_NoAccess1234/onboarding")

	result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.NoError(t, err)
	assert.True(t, result.ManualSetup)
	assert.Equal(t, domain.KycPending, result.Status)
	assert.Equal(t, "https://dashboard.example.com/acc_NoAccess1234/onboarding", result.OnboardingURL)

	// Manual setup is the one PENDING record that carries a reason; the
	// activation card shows it next to the hosted onboarding link.
	var last *domain.LinkedAccountRecord
	for _, call := range env.accounts.Calls {
		if call.Method == "Upsert" {
			last = call.Arguments.Get(1).(*domain.LinkedAccountRecord)
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, domain.KycPending, last.Status)
	assert.NotEmpty(t, last.ErrorReason)
	env.bus.AssertCalled(t, "Publish", mock.Anything, domain.TopicKycStatusChanged, mock.MatchedBy(func(event interface{}) bool {
		e, ok := event.(domain.StatusChangedEvent)
		return ok && e.From == domain.KycInProgress && e.To == domain.KycPending
	}))
}

// A provider-reported field error comes back tagged with the wizard step
// that owns the field, never with raw provider text.
func TestSubmitActivation_ProviderFieldError_RoutesToBankStep(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()
	env.allowPersistence()

	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.Account{ID: "acc_FieldErr1234", Status: "created"}, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_FieldErr1234").
		Return([]ports.Stakeholder{{ID: "sth_Someone12345"}}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_FieldErr1234", mock.Anything).
		Return(reviewProduct("prod_FieldErr123", ports.ProviderStatusRequested), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_FieldErr1234", "prod_FieldErr123", mock.Anything, mock.Anything).
		Return(nil, &ports.ProviderError{
			Kind:        ports.KindValidation,
			Field:       "settlements.beneficiary_name",
			Description: "beneficiary_name does not match bank records: secret details",
		})

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.Error(t, err)
	wfErr, ok := domain.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeFieldError, wfErr.Code)
	assert.Equal(t, domain.StepBank, wfErr.Step)
	assert.NotEmpty(t, wfErr.Ref)
	assert.NotContains(t, wfErr.Message, "secret details")
}

// Network failures surface as retryable transient errors with a
// correlation reference and nothing from the raw error text.
func TestSubmitActivation_NetworkError_Transient(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()

	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &ports.ProviderError{Kind: ports.KindNetwork, Description: "dial tcp: connection refused"})

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	wfErr, ok := domain.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeTransient, wfErr.Code)
	assert.NotEmpty(t, wfErr.Ref)
	assert.False(t, strings.Contains(wfErr.Message, "dial tcp"))
}

// Ownership is enforced before anything else happens.
func TestSubmitActivation_NotOwner_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	other := env.community(domain.KycNotStarted)
	other.OwnerID = uuid.New()
	env.communities.On("GetByID", mock.Anything, env.communityID).Return(other, nil)

	_, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	wfErr, ok := domain.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeForbidden, wfErr.Code)
	env.fields.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

// A locked activation form during the settlement patch is non-fatal: the
// attempt completes with the provider's reported status.
func TestSubmitActivation_LockedForm_NonFatal(t *testing.T) {
	env := newTestEnv(t)
	env.expectOwnership(domain.KycNotStarted)
	env.expectCompleteFields()
	env.allowPersistence()

	locked := reviewProduct("prod_Locked12345", ports.ProviderStatusUnderReview)
	locked.Settlement = nil // Not applied yet; review will pick it up

	env.accounts.On("GetByCommunityID", mock.Anything, env.communityID).Return(nil, nil)
	env.provider.On("Environment").Return("test")
	env.provider.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.Account{ID: "acc_Locked123456", Status: "created"}, nil)
	env.provider.On("ListStakeholders", mock.Anything, "acc_Locked123456").
		Return([]ports.Stakeholder{{ID: "sth_Locked123456"}}, nil)
	env.provider.On("RequestProduct", mock.Anything, "acc_Locked123456", mock.Anything).
		Return(reviewProduct("prod_Locked12345", ports.ProviderStatusUnderReview), nil)
	env.provider.On("UpdateProduct", mock.Anything, "acc_Locked123456", "prod_Locked12345", mock.Anything, mock.Anything).
		Return(nil, &ports.ProviderError{Kind: ports.KindLocked, Description: "activation form is under review"})
	env.provider.On("FetchProduct", mock.Anything, "acc_Locked123456", "prod_Locked12345").
		Return(locked, nil)

	result, err := env.svc.SubmitActivation(context.Background(), env.communityID, env.caller, env.bank, "Jane Doe", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.KycPending, result.Status)
}
