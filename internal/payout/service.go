package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"payday-service/internal/algorand"
	"payday-service/internal/model"
)

var (
	ErrInvalidRequest   = errors.New("Provide a valid Asset ID and amount")
	ErrOptInRequired    = errors.New("asset opt-in required")
	ErrPayoutNotFound   = errors.New("payout not found")
	ErrPayoutNotPending = errors.New("payout is not awaiting a signature")
	ErrOptInMismatch    = errors.New("signed transaction is not the expected opt-in")
)

// OptInRequiredError carries the unsigned opt-in the wallet must submit before retrying.
type OptInRequiredError struct {
	OptIn algorand.PreparedTxn
}

func (e *OptInRequiredError) Error() string {
	return ErrOptInRequired.Error()
}

func (e *OptInRequiredError) Is(target error) bool {
	return target == ErrOptInRequired
}

type Chain interface {
	AssetDecimals(ctx context.Context, assetID uint64) (uint64, error)
	IsOptedIn(ctx context.Context, address string, assetID uint64) (bool, error)
	BuildAssetTransfer(ctx context.Context, sender, receiver string, assetID, amount uint64) (types.Transaction, error)
	BuildOptIn(ctx context.Context, address string, assetID uint64) (types.Transaction, error)
	Submit(ctx context.Context, signed ...[]byte) (*algorand.Confirmation, error)
}

type Vault interface {
	Available() bool
	Release(ctx context.Context, assetID, amount uint64, receiver string) (string, error)
}

type Repository interface {
	Create(payout *model.Payout) error
	GetByID(id string) (*model.Payout, error)
	Update(payout *model.Payout) error
	ListByAddress(address string, limit int) ([]model.Payout, error)
}

type Service struct {
	chain    Chain
	vault    Vault
	repo     Repository
	treasury algorand.Signer
	feeBps   uint64
	logger   zerolog.Logger
}

func NewService(chain Chain, vault Vault, repo Repository, treasury algorand.Signer, feeBps uint64, logger zerolog.Logger) *Service {
	return &Service{
		chain:    chain,
		vault:    vault,
		repo:     repo,
		treasury: treasury,
		feeBps:   feeBps,
		logger:   logger,
	}
}

// Result is the outcome of a payout request. OptIn is set while the payout awaits the wallet's signature.
type Result struct {
	Payout    *model.Payout
	Breakdown Breakdown
	OptIn     *algorand.PreparedTxn
}

func (s *Service) FeeBps() uint64 {
	return s.feeBps
}

func (s *Service) VaultAvailable() bool {
	return s.vault.Available()
}

// Quote prices a gross amount with the service fee.
func (s *Service) Quote(amount string) (Breakdown, error) {
	gross, err := ParseAmount(amount)
	if err != nil {
		return Breakdown{}, err
	}
	return Quote(gross, s.feeBps), nil
}

// Request nets the fee off a gross amount and pays the rest to address.
func (s *Service) Request(ctx context.Context, address, assetIDStr, amountStr string) (*Result, error) {
	if !ValidAddress(address) {
		return nil, ErrInvalidAddress
	}
	assetID, err := ParseAssetID(assetIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	gross, err := ParseAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	breakdown := Quote(gross, s.feeBps)

	decimals, err := s.chain.AssetDecimals(ctx, assetID)
	if err != nil {
		return nil, err
	}
	units, err := ToBaseUnits(breakdown.Net, decimals)
	if err != nil {
		return nil, err
	}

	optedIn, err := s.chain.IsOptedIn(ctx, address, assetID)
	if err != nil {
		return nil, err
	}

	p := newPayout(address, assetID, decimals, units, breakdown)

	if s.vault.Available() {
		return s.releaseFromVault(ctx, p, breakdown, optedIn)
	}
	if optedIn {
		return s.sendFromTreasury(ctx, p, breakdown)
	}
	return s.prepareGroupedPayout(ctx, p, breakdown)
}

func newPayout(address string, assetID, decimals, units uint64, b Breakdown) *model.Payout {
	return &model.Payout{
		Address:      address,
		AssetID:      assetID,
		Decimals:     decimals,
		Gross:        b.GrossString(),
		Fee:          b.FeeString(),
		Net:          b.NetString(),
		NetBaseUnits: units,
		FeeBps:       b.FeeBps,
	}
}

func (s *Service) releaseFromVault(ctx context.Context, p *model.Payout, b Breakdown, optedIn bool) (*Result, error) {
	if !optedIn {
		tx, err := s.chain.BuildOptIn(ctx, p.Address, p.AssetID)
		if err != nil {
			return nil, err
		}
		return nil, &OptInRequiredError{OptIn: algorand.Prepare(tx)}
	}

	txID, err := s.vault.Release(ctx, p.AssetID, p.NetBaseUnits, p.Address)
	if err != nil {
		return nil, err
	}

	p.Route = model.RouteVault
	p.Status = model.StatusConfirmed
	p.TxID = txID
	if err = s.record(p); err != nil {
		return nil, err
	}
	return &Result{Payout: p, Breakdown: b}, nil
}

func (s *Service) sendFromTreasury(ctx context.Context, p *model.Payout, b Breakdown) (*Result, error) {
	tx, err := s.chain.BuildAssetTransfer(ctx, s.treasury.Address().String(), p.Address, p.AssetID, p.NetBaseUnits)
	if err != nil {
		return nil, err
	}
	txID, signed, err := s.treasury.Sign(tx)
	if err != nil {
		return nil, err
	}
	conf, err := s.chain.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}

	p.Route = model.RouteTreasury
	p.Status = model.StatusConfirmed
	p.TxID = txID
	p.ConfirmedRound = conf.Round
	if err = s.record(p); err != nil {
		return nil, err
	}
	return &Result{Payout: p, Breakdown: b}, nil
}

// prepareGroupedPayout pairs the receiver's opt-in with the treasury transfer in one atomic group.
// The treasury half is signed now and kept until the wallet returns its signed opt-in.
func (s *Service) prepareGroupedPayout(ctx context.Context, p *model.Payout, b Breakdown) (*Result, error) {
	optIn, err := s.chain.BuildOptIn(ctx, p.Address, p.AssetID)
	if err != nil {
		return nil, err
	}
	xfer, err := s.chain.BuildAssetTransfer(ctx, s.treasury.Address().String(), p.Address, p.AssetID, p.NetBaseUnits)
	if err != nil {
		return nil, err
	}

	group, err := algorand.Group(optIn, xfer)
	if err != nil {
		return nil, err
	}
	txID, signed, err := s.treasury.Sign(group[1])
	if err != nil {
		return nil, err
	}
	prepared := algorand.Prepare(group[0])

	p.Route = model.RouteTreasury
	p.Status = model.StatusAwaitingSignature
	p.OptInTxID = prepared.TxID
	p.PendingTxn = signed
	p.TxID = txID
	if err = s.repo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	s.logger.Info().Str("payout_id", p.ID).Str("address", p.Address).Msg("Payout awaiting opt-in signature")
	return &Result{Payout: p, Breakdown: b, OptIn: &prepared}, nil
}

func (s *Service) record(p *model.Payout) error {
	if err := s.repo.Create(p); err != nil {
		s.logger.Error().Err(err).Str("tx_id", p.TxID).Str("address", p.Address).Msg("Payout sent but not recorded")
		return fmt.Errorf("payout %s sent but not recorded: %w", p.TxID, err)
	}
	s.logger.Info().
		Str("payout_id", p.ID).
		Str("route", string(p.Route)).
		Str("tx_id", p.TxID).
		Uint64("asset_id", p.AssetID).
		Uint64("net_units", p.NetBaseUnits).
		Msg("Payout sent")
	return nil
}

// Complete submits a grouped payout once the wallet has signed its opt-in.
func (s *Service) Complete(ctx context.Context, address, id, signedOptIn string) (*model.Payout, error) {
	p, err := s.Get(address, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusAwaitingSignature {
		return nil, ErrPayoutNotPending
	}

	stx, err := algorand.DecodeSigned(signedOptIn)
	if err != nil {
		return nil, err
	}
	if stx.TxID != p.OptInTxID {
		return nil, ErrOptInMismatch
	}

	conf, err := s.chain.Submit(ctx, stx.Raw, p.PendingTxn)
	if err != nil {
		return nil, err
	}

	p.Status = model.StatusConfirmed
	p.ConfirmedRound = conf.Round
	p.PendingTxn = nil
	if err = s.repo.Update(p); err != nil {
		s.logger.Error().Err(err).Str("payout_id", p.ID).Str("tx_id", p.TxID).Msg("Payout confirmed but not recorded")
		return nil, fmt.Errorf("payout %s confirmed but not recorded: %w", p.TxID, err)
	}

	s.logger.Info().Str("payout_id", p.ID).Str("tx_id", p.TxID).Uint64("round", conf.Round).Msg("Grouped payout confirmed")
	return p, nil
}

// Get returns a payout owned by address.
func (s *Service) Get(address, id string) (*model.Payout, error) {
	p, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Address != address {
		return nil, ErrPayoutNotFound
	}
	return p, nil
}

func (s *Service) List(address string, limit int) ([]model.Payout, error) {
	return s.repo.ListByAddress(address, limit)
}
