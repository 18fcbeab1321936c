package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
	"payday-service/internal/model"
	"payday-service/internal/payout"
	"payday-service/internal/vault"
)

type PayoutService interface {
	FeeBps() uint64
	Quote(amount string) (payout.Breakdown, error)
	Request(ctx context.Context, address, assetIDStr, amountStr string) (*payout.Result, error)
	Complete(ctx context.Context, address, id, signedOptIn string) (*model.Payout, error)
	Get(address, id string) (*model.Payout, error)
	List(address string, limit int) ([]model.Payout, error)
}

type VaultAPI interface {
	Available() bool
	Reason() string
	AppID() uint64
	Fund(ctx context.Context, assetID, amount uint64) (string, error)
}

type AssetLookup interface {
	AssetDecimals(ctx context.Context, assetID uint64) (uint64, error)
}

type PayoutHandler struct {
	payouts PayoutService
	vault   VaultAPI
	assets  AssetLookup
	admin   string
	network string
	logger  zerolog.Logger
}

// NewPayoutHandler builds the payout routes. admin is the only address allowed to fund the vault.
func NewPayoutHandler(payouts PayoutService, vault VaultAPI, assets AssetLookup, admin, network string, logger zerolog.Logger) *PayoutHandler {
	return &PayoutHandler{
		payouts: payouts,
		vault:   vault,
		assets:  assets,
		admin:   admin,
		network: network,
		logger:  logger,
	}
}

func (h *PayoutHandler) Fees(w http.ResponseWriter, _ *http.Request) {
	bps := h.payouts.FeeBps()
	writeJSON(w, h.logger, http.StatusOK, FeesResponse{FeeBps: bps, FeePercent: payout.FeePercent(bps)})
}

func (h *PayoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	b, err := h.payouts.Quote(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, QuoteResponse{
		Gross:      b.GrossString(),
		Fee:        b.FeeString(),
		Net:        b.NetString(),
		FeeBps:     b.FeeBps,
		FeePercent: payout.FeePercent(b.FeeBps),
	})
}

func (h *PayoutHandler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	var req PayoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.payouts.Request(r.Context(), address, req.AssetID, req.Amount)
	if err != nil {
		var optIn *payout.OptInRequiredError
		switch {
		case errors.As(err, &optIn):
			writeJSON(w, h.logger, http.StatusConflict, OptInRequiredResponse{
				Error: "Opt in to the asset before requesting a vault payout",
				OptIn: UnsignedTxn{TxID: optIn.OptIn.TxID, Txn: optIn.OptIn.Txn},
			})
		case errors.Is(err, payout.ErrInvalidRequest):
			writeError(w, h.logger, http.StatusBadRequest, payout.ErrInvalidRequest.Error())
		case isInvalidInput(err):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("address", address).Msg("Payout failed")
			writeError(w, h.logger, http.StatusBadGateway, "Failed payout: "+err.Error())
		}
		return
	}

	response := h.toResponse(result.Payout)
	status := http.StatusCreated
	if result.OptIn != nil {
		status = http.StatusAccepted
		response.OptIn = &UnsignedTxn{TxID: result.OptIn.TxID, Txn: result.OptIn.Txn}
		response.Message = "Sign the asset opt-in to receive your payout"
	}

	writeJSON(w, h.logger, status, response)
}

func (h *PayoutHandler) CompletePayout(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	var req CompletePayoutRequest
	if err := decode(r, &req); err != nil || req.SignedTxn == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Signed opt-in transaction is required")
		return
	}

	p, err := h.payouts.Complete(r.Context(), address, mux.Vars(r)["id"], req.SignedTxn)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrPayoutNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Payout not found")
		case errors.Is(err, payout.ErrPayoutNotPending):
			writeError(w, h.logger, http.StatusConflict, err.Error())
		case errors.Is(err, payout.ErrOptInMismatch), errors.Is(err, algorand.ErrMalformedTxn):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("address", address).Msg("Failed to complete payout")
			writeError(w, h.logger, http.StatusBadGateway, "Failed payout: "+err.Error())
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, h.toResponse(p))
}

func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.payouts.Get(address, mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, payout.ErrPayoutNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Payout not found")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get payout")
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, h.toResponse(p))
}

func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	payouts, err := h.payouts.List(address, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("address", address).Msg("Failed to list payouts")
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := PayoutListResponse{Payouts: make([]PayoutResponse, 0, len(payouts))}
	for i := range payouts {
		response.Payouts = append(response.Payouts, h.toResponse(&payouts[i]))
	}
	writeJSON(w, h.logger, http.StatusOK, response)
}

func (h *PayoutHandler) Vault(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, VaultResponse{
		Available: h.vault.Available(),
		AppID:     h.vault.AppID(),
		Reason:    h.vault.Reason(),
	})
}

func (h *PayoutHandler) FundVault(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}
	if address != h.admin {
		writeError(w, h.logger, http.StatusForbidden, "Only the vault admin can fund the vault")
		return
	}

	var req FundVaultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	assetID, err := payout.ParseAssetID(req.AssetID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := payout.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if !h.vault.Available() {
		writeError(w, h.logger, http.StatusServiceUnavailable, h.vault.Reason())
		return
	}

	decimals, err := h.assets.AssetDecimals(r.Context(), assetID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadGateway, "Failed to fund vault: "+err.Error())
		return
	}
	units, err := payout.ToBaseUnits(amount, decimals)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	txID, err := h.vault.Fund(r.Context(), assetID, units)
	if err != nil {
		if errors.Is(err, vault.ErrFundNotFound) || errors.Is(err, vault.ErrUnsupportedMethod) {
			writeError(w, h.logger, http.StatusNotImplemented, err.Error())
			return
		}
		h.logger.Error().Err(err).Uint64("asset_id", assetID).Msg("Failed to fund vault")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to fund vault: "+err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, FundVaultResponse{TxID: txID})
}

func (h *PayoutHandler) toResponse(p *model.Payout) PayoutResponse {
	response := PayoutResponse{
		ID:             p.ID,
		Address:        p.Address,
		AssetID:        p.AssetID,
		Gross:          p.Gross,
		Fee:            p.Fee,
		Net:            p.Net,
		NetBaseUnits:   p.NetBaseUnits,
		FeeBps:         p.FeeBps,
		Route:          string(p.Route),
		Status:         string(p.Status),
		TxID:           p.TxID,
		ConfirmedRound: p.ConfirmedRound,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Status == model.StatusConfirmed && p.TxID != "" && p.TxID != "ok" {
		response.ExplorerURL = algorand.ExplorerURL(h.network, p.TxID)
	}
	switch {
	case p.Status != model.StatusConfirmed:
	case p.Route == model.RouteVault:
		response.Message = "Vault payout sent: " + p.TxID
	default:
		response.Message = "Payout sent (net): " + p.TxID
	}
	return response
}
