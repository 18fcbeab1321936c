package handler

type ErrorResponse struct {
	Error string `json:"error"`
}

type ChallengeRequest struct {
	Address string `json:"address"`
}

type ChallengeResponse struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

type ConnectRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

type ConnectResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type TransferRow struct {
	ID          string `json:"id"`
	ShortID     string `json:"shortId"`
	Round       uint64 `json:"round"`
	Amount      string `json:"amount"`
	From        string `json:"from"`
	To          string `json:"to"`
	Direction   string `json:"direction"`
	ExplorerURL string `json:"explorerUrl"`
}

type DashboardResponse struct {
	Address      string        `json:"address"`
	AlgoBalance  string        `json:"algoBalance"`
	AssetID      uint64        `json:"assetId,omitempty"`
	AssetBalance string        `json:"assetBalance"`
	OptedIn      bool          `json:"optedIn"`
	Recent       []TransferRow `json:"recent"`
}

type UnsignedTxn struct {
	TxID string `json:"txId"`
	Txn  string `json:"txn"`
}

type TransferRequest struct {
	AssetID  string `json:"assetId"`
	Amount   string `json:"amount"`
	Receiver string `json:"receiver"`
}

type TransferResponse struct {
	UnsignedTxn
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	AssetID   uint64 `json:"assetId"`
	Amount    string `json:"amount"`
	BaseUnits uint64 `json:"baseUnits"`
}

type SubmitRequest struct {
	SignedTxns []string `json:"signedTxns"`
}

type SubmitResponse struct {
	TxID        string `json:"txId"`
	Round       uint64 `json:"round"`
	Message     string `json:"message"`
	ExplorerURL string `json:"explorerUrl"`
}

type FeesResponse struct {
	FeeBps     uint64 `json:"feeBps"`
	FeePercent string `json:"feePercent"`
}

type QuoteResponse struct {
	Gross      string `json:"gross"`
	Fee        string `json:"fee"`
	Net        string `json:"net"`
	FeeBps     uint64 `json:"feeBps"`
	FeePercent string `json:"feePercent"`
}

type PayoutRequest struct {
	AssetID string `json:"assetId"`
	Amount  string `json:"amount"`
}

type CompletePayoutRequest struct {
	SignedTxn string `json:"signedTxn"`
}

type PayoutResponse struct {
	ID             string       `json:"id"`
	Address        string       `json:"address"`
	AssetID        uint64       `json:"assetId"`
	Gross          string       `json:"gross"`
	Fee            string       `json:"fee"`
	Net            string       `json:"net"`
	NetBaseUnits   uint64       `json:"netBaseUnits"`
	FeeBps         uint64       `json:"feeBps"`
	Route          string       `json:"route"`
	Status         string       `json:"status"`
	TxID           string       `json:"txId,omitempty"`
	ConfirmedRound uint64       `json:"confirmedRound,omitempty"`
	ExplorerURL    string       `json:"explorerUrl,omitempty"`
	OptIn          *UnsignedTxn `json:"optIn,omitempty"`
	Message        string       `json:"message,omitempty"`
	CreatedAt      string       `json:"createdAt"`
}

type OptInRequiredResponse struct {
	Error string      `json:"error"`
	OptIn UnsignedTxn `json:"optIn"`
}

type PayoutListResponse struct {
	Payouts []PayoutResponse `json:"payouts"`
}

type VaultResponse struct {
	Available bool   `json:"available"`
	AppID     uint64 `json:"appId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type FundVaultRequest struct {
	AssetID string `json:"assetId"`
	Amount  string `json:"amount"`
}

type FundVaultResponse struct {
	TxID string `json:"txId"`
}
