package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
	"payday-service/internal/payout"
)

var (
	ErrInvalidReceiver = errors.New("Invalid receiver address")
	ErrSenderMismatch  = errors.New("transaction sender is not the connected wallet")
)

type Chain interface {
	AssetDecimals(ctx context.Context, assetID uint64) (uint64, error)
	BuildAssetTransfer(ctx context.Context, sender, receiver string, assetID, amount uint64) (types.Transaction, error)
	Submit(ctx context.Context, signed ...[]byte) (*algorand.Confirmation, error)
}

type Service struct {
	chain  Chain
	logger zerolog.Logger
}

func NewService(chain Chain, logger zerolog.Logger) *Service {
	return &Service{chain: chain, logger: logger}
}

// Prepared is an unsigned ASA transfer waiting for the sender's wallet.
type Prepared struct {
	algorand.PreparedTxn
	Sender    string
	Receiver  string
	AssetID   uint64
	Amount    string
	BaseUnits uint64
}

// Prepare builds an unsigned transfer of amount whole units from sender to receiver.
func (s *Service) Prepare(ctx context.Context, sender, receiver, assetIDStr, amountStr string) (*Prepared, error) {
	assetID, err := payout.ParseAssetID(assetIDStr)
	if err != nil {
		return nil, err
	}
	amount, err := payout.ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}
	if !payout.ValidAddress(receiver) {
		return nil, ErrInvalidReceiver
	}

	decimals, err := s.chain.AssetDecimals(ctx, assetID)
	if err != nil {
		return nil, err
	}
	units, err := payout.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	tx, err := s.chain.BuildAssetTransfer(ctx, sender, receiver, assetID, units)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		PreparedTxn: algorand.Prepare(tx),
		Sender:      sender,
		Receiver:    receiver,
		AssetID:     assetID,
		Amount:      payout.FromBaseUnits(units, decimals),
		BaseUnits:   units,
	}, nil
}

// Submit sends wallet-signed transactions as one group. Every transaction must come from sender.
func (s *Service) Submit(ctx context.Context, sender string, signedB64 []string) (*algorand.Confirmation, error) {
	if len(signedB64) == 0 {
		return nil, algorand.ErrEmptyGroup
	}

	raw := make([][]byte, 0, len(signedB64))
	var firstID string
	for i, b64 := range signedB64 {
		stx, err := algorand.DecodeSigned(b64)
		if err != nil {
			return nil, err
		}
		if stx.Sender != sender {
			return nil, fmt.Errorf("%w: txn %d sent by %s", ErrSenderMismatch, i, stx.Sender)
		}
		if i == 0 {
			firstID = stx.TxID
		}
		raw = append(raw, stx.Raw)
	}

	conf, err := s.chain.Submit(ctx, raw...)
	if err != nil {
		return nil, err
	}
	if conf.TxID == "" {
		conf.TxID = firstID
	}

	s.logger.Info().Str("sender", sender).Str("tx_id", conf.TxID).Uint64("round", conf.Round).Msg("ASA transfer sent")
	return conf, nil
}
