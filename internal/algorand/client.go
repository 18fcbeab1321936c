package algorand

import (
	"bytes"
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"
)

const (
	waitRounds     = 4
	minTxnFee      = 1000
	recentTransfer = 10
)

type Options struct {
	AlgodServer   string
	AlgodToken    string
	IndexerServer string
	IndexerToken  string
	Network       string
}

// Client talks to algod and, when configured, an indexer.
type Client struct {
	algod   *algod.Client
	indexer *indexer.Client
	network string
	logger  zerolog.Logger
}

func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	algodClient, err := algod.MakeClient(opts.AlgodServer, opts.AlgodToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}

	c := &Client{
		algod:   algodClient,
		network: opts.Network,
		logger:  logger,
	}

	if opts.IndexerServer != "" {
		c.indexer, err = indexer.MakeClient(opts.IndexerServer, opts.IndexerToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create indexer client: %w", err)
		}
	}

	return c, nil
}

func (c *Client) Network() string {
	return c.network
}

func (c *Client) HasIndexer() bool {
	return c.indexer != nil
}

func (c *Client) AccountInformation(ctx context.Context, address string) (*AccountInfo, error) {
	acct, err := c.algod.AccountInformation(address).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}

	info := &AccountInfo{
		Address:    acct.Address,
		MicroAlgos: acct.Amount,
		MinBalance: acct.MinBalance,
		Holdings:   make([]Holding, 0, len(acct.Assets)),
	}
	for _, h := range acct.Assets {
		info.Holdings = append(info.Holdings, Holding{
			AssetID: h.AssetId,
			Amount:  h.Amount,
			Frozen:  h.IsFrozen,
		})
	}
	return info, nil
}

func (c *Client) AssetDecimals(ctx context.Context, assetID uint64) (uint64, error) {
	asset, err := c.algod.GetAssetByID(assetID).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch asset %d: %w", assetID, err)
	}
	return asset.Params.Decimals, nil
}

// AssetHolding returns the holding and whether the account is opted in to assetID.
func (c *Client) AssetHolding(ctx context.Context, address string, assetID uint64) (Holding, bool, error) {
	info, err := c.AccountInformation(ctx, address)
	if err != nil {
		return Holding{}, false, err
	}
	h, ok := info.Holding(assetID)
	return h, ok, nil
}

func (c *Client) IsOptedIn(ctx context.Context, address string, assetID uint64) (bool, error) {
	_, ok, err := c.AssetHolding(ctx, address, assetID)
	return ok, err
}

func (c *Client) BuildAssetTransfer(ctx context.Context, sender, receiver string, assetID, amount uint64) (types.Transaction, error) {
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to fetch suggested params: %w", err)
	}
	tx, err := transaction.MakeAssetTransferTxn(sender, receiver, amount, nil, sp, "", assetID)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to build asset transfer: %w", err)
	}
	return tx, nil
}

// BuildOptIn builds the 0-amount self transfer that opts address in to assetID.
func (c *Client) BuildOptIn(ctx context.Context, address string, assetID uint64) (types.Transaction, error) {
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to fetch suggested params: %w", err)
	}
	tx, err := transaction.MakeAssetAcceptanceTxn(address, nil, sp, assetID)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to build opt-in: %w", err)
	}
	return tx, nil
}

// Submit sends signed transactions as one group and waits for confirmation.
func (c *Client) Submit(ctx context.Context, signed ...[]byte) (*Confirmation, error) {
	if len(signed) == 0 {
		return nil, ErrEmptyGroup
	}

	txID, err := c.algod.SendRawTransaction(bytes.Join(signed, nil)).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	pending, err := transaction.WaitForConfirmation(c.algod, txID, waitRounds, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", txID, err)
	}

	c.logger.Info().Str("tx_id", txID).Uint64("round", pending.ConfirmedRound).Msg("Transaction confirmed")
	return &Confirmation{TxID: txID, Round: pending.ConfirmedRound}, nil
}

// MethodCall describes an ABI application call.
type MethodCall struct {
	AppID         uint64
	Method        abi.Method
	Args          []interface{}
	ForeignAssets []uint64
	ExtraFee      uint64
}

// CallMethod executes an ABI method call and returns the confirmed transaction IDs.
func (c *Client) CallMethod(ctx context.Context, signer Signer, call MethodCall) ([]string, error) {
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggested params: %w", err)
	}
	base := sp.MinFee
	if base == 0 {
		base = minTxnFee
	}
	sp.FlatFee = true
	sp.Fee = types.MicroAlgos(base + call.ExtraFee)

	var atc transaction.AtomicTransactionComposer
	err = atc.AddMethodCall(transaction.AddMethodCallParams{
		AppID:           call.AppID,
		Method:          call.Method,
		MethodArgs:      call.Args,
		Sender:          signer.Address(),
		SuggestedParams: sp,
		OnComplete:      types.NoOpOC,
		Signer:          signer.TransactionSigner(),
		ForeignAssets:   call.ForeignAssets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose %s call: %w", call.Method.Name, err)
	}

	result, err := atc.Execute(c.algod, ctx, waitRounds)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s call: %w", call.Method.Name, err)
	}

	c.logger.Info().
		Uint64("app_id", call.AppID).
		Str("method", call.Method.Name).
		Uint64("round", result.ConfirmedRound).
		Msg("Application call confirmed")
	return result.TxIDs, nil
}

// RecentAssetTransfers lists the latest asset transfers touching address.
func (c *Client) RecentAssetTransfers(ctx context.Context, address string, assetID uint64) ([]Transfer, error) {
	if c.indexer == nil {
		return nil, ErrIndexerUnavailable
	}

	resp, err := c.indexer.LookupAccountTransactions(address).
		AssetID(assetID).
		TxType("axfer").
		Limit(recentTransfer).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up transactions: %w", err)
	}

	rows := make([]Transfer, 0, len(resp.Transactions))
	for _, t := range resp.Transactions {
		rows = append(rows, Transfer{
			ID:      t.Id,
			Round:   t.ConfirmedRound,
			AssetID: t.AssetTransferTransaction.AssetId,
			Amount:  t.AssetTransferTransaction.Amount,
			From:    t.Sender,
			To:      t.AssetTransferTransaction.Receiver,
		})
	}
	return rows, nil
}
