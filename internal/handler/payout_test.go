package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payday-service/internal/algorand"
	"payday-service/internal/model"
	"payday-service/internal/payout"
	"payday-service/internal/session"
	"payday-service/internal/vault"
)

type MockPayoutService struct {
	Result  *payout.Result
	Payout  *model.Payout
	Payouts []model.Payout
	Error   error
	Limit   int
}

func (m *MockPayoutService) FeeBps() uint64 { return payout.DefaultFeeBps }

func (m *MockPayoutService) Quote(amount string) (payout.Breakdown, error) {
	gross, err := payout.ParseAmount(amount)
	if err != nil {
		return payout.Breakdown{}, err
	}
	return payout.Quote(gross, payout.DefaultFeeBps), nil
}

func (m *MockPayoutService) Request(_ context.Context, _, _, _ string) (*payout.Result, error) {
	return m.Result, m.Error
}

func (m *MockPayoutService) Complete(_ context.Context, _, _, _ string) (*model.Payout, error) {
	return m.Payout, m.Error
}

func (m *MockPayoutService) Get(_, _ string) (*model.Payout, error) {
	return m.Payout, m.Error
}

func (m *MockPayoutService) List(_ string, limit int) ([]model.Payout, error) {
	m.Limit = limit
	return m.Payouts, m.Error
}

type MockVaultAPI struct {
	IsAvailable bool
	Why         string
	TxID        string
	Error       error
	Funded      uint64
}

func (m *MockVaultAPI) Available() bool { return m.IsAvailable }
func (m *MockVaultAPI) Reason() string  { return m.Why }
func (m *MockVaultAPI) AppID() uint64 {
	if m.IsAvailable {
		return 1001
	}
	return 0
}

func (m *MockVaultAPI) Fund(_ context.Context, _, amount uint64) (string, error) {
	m.Funded = amount
	return m.TxID, m.Error
}

type MockAssetLookup struct {
	Decimals uint64
	Error    error
}

func (m *MockAssetLookup) AssetDecimals(_ context.Context, _ uint64) (uint64, error) {
	return m.Decimals, m.Error
}

func newPayoutHandler(svc *MockPayoutService, v *MockVaultAPI) *PayoutHandler {
	return NewPayoutHandler(svc, v, &MockAssetLookup{Decimals: 6}, testAddress, "testnet", zerolog.Nop())
}

func confirmedPayout(route model.PayoutRoute) *model.Payout {
	return &model.Payout{
		ID:           "p-1",
		Address:      testAddress,
		AssetID:      10458941,
		Gross:        "1000.000000",
		Fee:          "15.000000",
		Net:          "985.000000",
		NetBaseUnits: 985000000,
		FeeBps:       150,
		Route:        route,
		Status:       model.StatusConfirmed,
		TxID:         "TX",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFees(t *testing.T) {
	h := newPayoutHandler(&MockPayoutService{}, &MockVaultAPI{})

	recorder := httptest.NewRecorder()
	h.Fees(recorder, httptest.NewRequest(http.MethodGet, "/fees", nil))
	var fees FeesResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&fees))
	assert.Equal(t, uint64(150), fees.FeeBps)
	assert.Equal(t, "1.50", fees.FeePercent)

	recorder = httptest.NewRecorder()
	h.Quote(recorder, httptest.NewRequest(http.MethodGet, "/fees/quote?amount=1000", nil))
	var quote QuoteResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&quote))
	assert.Equal(t, "15.000000", quote.Fee)
	assert.Equal(t, "985.000000", quote.Net)

	recorder = httptest.NewRecorder()
	h.Quote(recorder, httptest.NewRequest(http.MethodGet, "/fees/quote?amount=abc", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "Invalid amount", errorBody(t, recorder))
}

func TestCreatePayout(t *testing.T) {
	optIn := algorand.PreparedTxn{TxID: "OPTIN", Txn: "b3B0aW4="}

	tests := []struct {
		name   string
		svc    *MockPayoutService
		assert func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "treasury_confirmed",
			svc: &MockPayoutService{Result: &payout.Result{
				Payout:    confirmedPayout(model.RouteTreasury),
				Breakdown: payout.Quote(decimal.NewFromInt(1000), 150),
			}},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusCreated, recorder.Code)
				var response PayoutResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
				assert.Equal(t, "Payout sent (net): TX", response.Message)
				assert.Equal(t, "treasury", response.Route)
				assert.Equal(t, "https://lora.algokit.io/testnet/tx/TX/", response.ExplorerURL)
				assert.Equal(t, "2026-01-02T03:04:05Z", response.CreatedAt)
				assert.Nil(t, response.OptIn)
			},
		},
		{
			name: "vault_confirmed",
			svc:  &MockPayoutService{Result: &payout.Result{Payout: confirmedPayout(model.RouteVault)}},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusCreated, recorder.Code)
				var response PayoutResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
				assert.Equal(t, "Vault payout sent: TX", response.Message)
			},
		},
		{
			name: "awaiting_signature",
			svc: &MockPayoutService{Result: &payout.Result{
				Payout: &model.Payout{ID: "p-2", Route: model.RouteTreasury, Status: model.StatusAwaitingSignature, TxID: "TX"},
				OptIn:  &optIn,
			}},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusAccepted, recorder.Code)
				var response PayoutResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
				assert.Equal(t, "awaiting_signature", response.Status)
				require.NotNil(t, response.OptIn)
				assert.Equal(t, "OPTIN", response.OptIn.TxID)
				assert.Empty(t, response.ExplorerURL)
			},
		},
		{
			name: "opt_in_required",
			svc:  &MockPayoutService{Error: &payout.OptInRequiredError{OptIn: optIn}},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusConflict, recorder.Code)
				var response OptInRequiredResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
				assert.Equal(t, "OPTIN", response.OptIn.TxID)
				assert.NotEmpty(t, response.Error)
			},
		},
		{
			name: "invalid_request",
			svc:  &MockPayoutService{Error: fmt.Errorf("%w: %v", payout.ErrInvalidRequest, payout.ErrInvalidAssetID)},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusBadRequest, recorder.Code)
				assert.Equal(t, "Provide a valid Asset ID and amount", errorBody(t, recorder))
			},
		},
		{
			name: "chain_error",
			svc:  &MockPayoutService{Error: errors.New("Vault method not found on client")},
			assert: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusBadGateway, recorder.Code)
				assert.Equal(t, "Failed payout: Vault method not found on client", errorBody(t, recorder))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPayoutHandler(tt.svc, &MockVaultAPI{})
			recorder := httptest.NewRecorder()
			body := PayoutRequest{AssetID: "10458941", Amount: "1000"}
			h.CreatePayout(recorder, authed(jsonRequest(t, http.MethodPost, "/payouts", body)))
			tt.assert(t, recorder)
		})
	}
}

func TestCompletePayout(t *testing.T) {
	tests := []struct {
		name    string
		svc     *MockPayoutService
		body    CompletePayoutRequest
		code    int
		message string
	}{
		{name: "success", svc: &MockPayoutService{Payout: confirmedPayout(model.RouteTreasury)}, body: CompletePayoutRequest{SignedTxn: "c2ln"}, code: http.StatusOK},
		{name: "missing_txn", svc: &MockPayoutService{}, code: http.StatusBadRequest, message: "Signed opt-in transaction is required"},
		{name: "not_found", svc: &MockPayoutService{Error: payout.ErrPayoutNotFound}, body: CompletePayoutRequest{SignedTxn: "c2ln"}, code: http.StatusNotFound, message: "Payout not found"},
		{name: "not_pending", svc: &MockPayoutService{Error: payout.ErrPayoutNotPending}, body: CompletePayoutRequest{SignedTxn: "c2ln"}, code: http.StatusConflict, message: "payout is not awaiting a signature"},
		{name: "mismatch", svc: &MockPayoutService{Error: payout.ErrOptInMismatch}, body: CompletePayoutRequest{SignedTxn: "c2ln"}, code: http.StatusBadRequest, message: "signed transaction is not the expected opt-in"},
		{name: "rejected", svc: &MockPayoutService{Error: errors.New("rejected")}, body: CompletePayoutRequest{SignedTxn: "c2ln"}, code: http.StatusBadGateway, message: "Failed payout: rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPayoutHandler(tt.svc, &MockVaultAPI{})
			req := authed(jsonRequest(t, http.MethodPost, "/payouts/p-1/complete", tt.body))
			req = mux.SetURLVars(req, map[string]string{"id": "p-1"})

			recorder := httptest.NewRecorder()
			h.CompletePayout(recorder, req)

			assert.Equal(t, tt.code, recorder.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorBody(t, recorder))
			}
		})
	}
}

func TestGetAndListPayouts(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		h := newPayoutHandler(&MockPayoutService{Payout: confirmedPayout(model.RouteTreasury)}, &MockVaultAPI{})
		req := mux.SetURLVars(authed(httptest.NewRequest(http.MethodGet, "/payouts/p-1", nil)), map[string]string{"id": "p-1"})

		recorder := httptest.NewRecorder()
		h.GetPayout(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"id":"p-1"`)
	})

	t.Run("get_not_found", func(t *testing.T) {
		h := newPayoutHandler(&MockPayoutService{Error: payout.ErrPayoutNotFound}, &MockVaultAPI{})
		req := mux.SetURLVars(authed(httptest.NewRequest(http.MethodGet, "/payouts/x", nil)), map[string]string{"id": "x"})

		recorder := httptest.NewRecorder()
		h.GetPayout(recorder, req)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("list", func(t *testing.T) {
		svc := &MockPayoutService{Payouts: []model.Payout{*confirmedPayout(model.RouteVault), *confirmedPayout(model.RouteTreasury)}}
		h := newPayoutHandler(svc, &MockVaultAPI{})

		recorder := httptest.NewRecorder()
		h.ListPayouts(recorder, authed(httptest.NewRequest(http.MethodGet, "/payouts?limit=5", nil)))
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 5, svc.Limit)

		var response PayoutListResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Len(t, response.Payouts, 2)
	})

	t.Run("list_bad_limit", func(t *testing.T) {
		h := newPayoutHandler(&MockPayoutService{}, &MockVaultAPI{})
		recorder := httptest.NewRecorder()
		h.ListPayouts(recorder, authed(httptest.NewRequest(http.MethodGet, "/payouts?limit=-1", nil)))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestVault(t *testing.T) {
	recorder := httptest.NewRecorder()
	newPayoutHandler(&MockPayoutService{}, &MockVaultAPI{Why: "Vault appId not set"}).Vault(recorder, httptest.NewRequest(http.MethodGet, "/vault", nil))

	var response VaultResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.False(t, response.Available)
	assert.Equal(t, "Vault appId not set", response.Reason)
}

func TestFundVault(t *testing.T) {
	tests := []struct {
		name    string
		vault   *MockVaultAPI
		caller  string
		body    FundVaultRequest
		code    int
		message string
	}{
		{name: "success", vault: &MockVaultAPI{IsAvailable: true, TxID: "FUND"}, caller: testAddress, body: FundVaultRequest{AssetID: "7", Amount: "2.5"}, code: http.StatusOK},
		{name: "not_admin", vault: &MockVaultAPI{IsAvailable: true}, caller: "SOMEONE", body: FundVaultRequest{AssetID: "7", Amount: "1"}, code: http.StatusForbidden, message: "Only the vault admin can fund the vault"},
		{name: "invalid_asset", vault: &MockVaultAPI{IsAvailable: true}, caller: testAddress, body: FundVaultRequest{AssetID: "x", Amount: "1"}, code: http.StatusBadRequest, message: "Invalid Asset ID"},
		{name: "unavailable", vault: &MockVaultAPI{Why: "Vault client not found"}, caller: testAddress, body: FundVaultRequest{AssetID: "7", Amount: "1"}, code: http.StatusServiceUnavailable, message: "Vault client not found"},
		{name: "no_fund_method", vault: &MockVaultAPI{IsAvailable: true, Error: vault.ErrFundNotFound}, caller: testAddress, body: FundVaultRequest{AssetID: "7", Amount: "1"}, code: http.StatusNotImplemented, message: "Vault fund method not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPayoutHandler(&MockPayoutService{}, tt.vault)
			req := jsonRequest(t, http.MethodPost, "/vault/fund", tt.body)
			req = req.WithContext(session.WithAddress(req.Context(), tt.caller))

			recorder := httptest.NewRecorder()
			h.FundVault(recorder, req)

			assert.Equal(t, tt.code, recorder.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorBody(t, recorder))
				return
			}
			assert.Equal(t, uint64(2500000), tt.vault.Funded)
		})
	}
}
