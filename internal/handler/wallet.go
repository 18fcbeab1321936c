package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
	"payday-service/internal/dashboard"
	"payday-service/internal/payout"
	"payday-service/internal/session"
	"payday-service/internal/transfer"
)

type SessionManager interface {
	Challenge(address string) (string, error)
	Connect(address, signatureB64 string) (string, error)
}

type DashboardService interface {
	Load(ctx context.Context, address, assetIDStr string) (*dashboard.Summary, error)
}

type TransferService interface {
	Prepare(ctx context.Context, sender, receiver, assetIDStr, amountStr string) (*transfer.Prepared, error)
	Submit(ctx context.Context, sender string, signedB64 []string) (*algorand.Confirmation, error)
}

type WalletHandler struct {
	sessions  SessionManager
	dashboard DashboardService
	transfers TransferService
	network   string
	logger    zerolog.Logger
}

func NewWalletHandler(sessions SessionManager, dashboard DashboardService, transfers TransferService, network string, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		sessions:  sessions,
		dashboard: dashboard,
		transfers: transfers,
		network:   network,
		logger:    logger,
	}
}

func (h *WalletHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	address := strings.TrimSpace(req.Address)
	message, err := h.sessions.Challenge(address)
	if err != nil {
		if errors.Is(err, session.ErrInvalidAddress) {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid wallet address")
			return
		}
		h.logger.Error().Err(err).Str("address", address).Msg("Failed to issue challenge")
		writeError(w, h.logger, http.StatusInternalServerError, "Service unavailable")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ChallengeResponse{Address: address, Message: message})
}

func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Signature == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Signature is required")
		return
	}

	address := strings.TrimSpace(req.Address)
	token, err := h.sessions.Connect(address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidAddress):
			writeError(w, h.logger, http.StatusBadRequest, "Invalid wallet address")
		case errors.Is(err, session.ErrChallengeNotFound), errors.Is(err, session.ErrInvalidSignature):
			h.logger.Warn().Err(err).Str("address", address).Msg("Wallet connect rejected")
			writeError(w, h.logger, http.StatusUnauthorized, "Failed to connect wallet: "+err.Error())
		default:
			h.logger.Error().Err(err).Str("address", address).Msg("Failed to connect wallet")
			writeError(w, h.logger, http.StatusInternalServerError, "Service unavailable")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ConnectResponse{Token: token, Address: address})
}

func (h *WalletHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.dashboard.Load(r.Context(), address, r.URL.Query().Get("assetId"))
	if err != nil {
		h.logger.Error().Err(err).Str("address", address).Msg("Failed to load balances")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to load balances: "+err.Error())
		return
	}

	response := DashboardResponse{
		Address:      summary.Address,
		AlgoBalance:  summary.AlgoBalance,
		AssetID:      summary.AssetID,
		AssetBalance: summary.AssetBalance,
		OptedIn:      summary.OptedIn,
		Recent:       make([]TransferRow, 0, len(summary.Recent)),
	}
	for _, row := range summary.Recent {
		response.Recent = append(response.Recent, TransferRow{
			ID:          row.ID,
			ShortID:     row.ShortID,
			Round:       row.Round,
			Amount:      row.Amount,
			From:        row.From,
			To:          row.To,
			Direction:   string(row.Direction),
			ExplorerURL: row.ExplorerURL,
		})
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}

func (h *WalletHandler) PrepareTransfer(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	var req TransferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	prepared, err := h.transfers.Prepare(r.Context(), address, strings.TrimSpace(req.Receiver), req.AssetID, req.Amount)
	if err != nil {
		if isInvalidInput(err) || errors.Is(err, transfer.ErrInvalidReceiver) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("address", address).Msg("Failed to prepare ASA transfer")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to send ASA: "+err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, TransferResponse{
		UnsignedTxn: UnsignedTxn{TxID: prepared.TxID, Txn: prepared.Txn},
		Sender:      prepared.Sender,
		Receiver:    prepared.Receiver,
		AssetID:     prepared.AssetID,
		Amount:      prepared.Amount,
		BaseUnits:   prepared.BaseUnits,
	})
}

func (h *WalletHandler) SubmitTransactions(w http.ResponseWriter, r *http.Request) {
	address, ok := connected(w, r, h.logger)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.SignedTxns) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Signed transactions are required")
		return
	}

	conf, err := h.transfers.Submit(r.Context(), address, req.SignedTxns)
	if err != nil {
		switch {
		case errors.Is(err, algorand.ErrMalformedTxn), errors.Is(err, algorand.ErrEmptyGroup):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		case errors.Is(err, transfer.ErrSenderMismatch):
			writeError(w, h.logger, http.StatusForbidden, err.Error())
		default:
			h.logger.Error().Err(err).Str("address", address).Msg("Failed to submit transactions")
			writeError(w, h.logger, http.StatusBadGateway, "Failed to send ASA: "+err.Error())
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, SubmitResponse{
		TxID:        conf.TxID,
		Round:       conf.Round,
		Message:     "ASA transfer sent: " + conf.TxID,
		ExplorerURL: algorand.ExplorerURL(h.network, conf.TxID),
	})
}

// isInvalidInput reports validation failures caused by the caller's input.
func isInvalidInput(err error) bool {
	for _, target := range []error{
		payout.ErrInvalidAddress,
		payout.ErrInvalidAssetID,
		payout.ErrInvalidAmount,
		payout.ErrAmountTooSmall,
		payout.ErrAmountTooLarge,
		payout.ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
