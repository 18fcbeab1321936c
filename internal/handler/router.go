package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter mounts the public wallet-connect routes and the session protected API.
func NewRouter(wallet *WalletHandler, payouts *PayoutHandler, auth mux.MiddlewareFunc, logger zerolog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/wallet/challenge", wallet.Challenge).Methods(http.MethodPost)
	r.HandleFunc("/wallet/connect", wallet.Connect).Methods(http.MethodPost)

	api := r.PathPrefix("/").Subrouter()
	api.Use(auth)

	api.HandleFunc("/dashboard", wallet.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/asa/transfers", wallet.PrepareTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transactions", wallet.SubmitTransactions).Methods(http.MethodPost)

	api.HandleFunc("/fees", payouts.Fees).Methods(http.MethodGet)
	api.HandleFunc("/fees/quote", payouts.Quote).Methods(http.MethodGet)
	api.HandleFunc("/payouts", payouts.CreatePayout).Methods(http.MethodPost)
	api.HandleFunc("/payouts", payouts.ListPayouts).Methods(http.MethodGet)
	api.HandleFunc("/payouts/{id}", payouts.GetPayout).Methods(http.MethodGet)
	api.HandleFunc("/payouts/{id}/complete", payouts.CompletePayout).Methods(http.MethodPost)
	api.HandleFunc("/vault", payouts.Vault).Methods(http.MethodGet)
	api.HandleFunc("/vault/fund", payouts.FundVault).Methods(http.MethodPost)

	return r
}
