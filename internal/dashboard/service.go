package dashboard

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
	"payday-service/internal/payout"
)

const (
	algoDecimals = 6
	noAsset      = "-"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

type Chain interface {
	Network() string
	AccountInformation(ctx context.Context, address string) (*algorand.AccountInfo, error)
	AssetDecimals(ctx context.Context, assetID uint64) (uint64, error)
	RecentAssetTransfers(ctx context.Context, address string, assetID uint64) ([]algorand.Transfer, error)
}

type Direction string

const (
	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

// Row is one recent ASA transfer as shown to the connected wallet.
type Row struct {
	ID          string
	ShortID     string
	Round       uint64
	Amount      string
	From        string
	To          string
	Direction   Direction
	ExplorerURL string
}

type Summary struct {
	Address      string
	AlgoBalance  string
	AssetID      uint64
	AssetBalance string
	OptedIn      bool
	Recent       []Row
}

type Service struct {
	chain  Chain
	logger zerolog.Logger
}

func NewService(chain Chain, logger zerolog.Logger) *Service {
	return &Service{chain: chain, logger: logger}
}

// Load reads balances for address and, when assetIDStr is a number, its recent transfers of that asset.
func (s *Service) Load(ctx context.Context, address, assetIDStr string) (*Summary, error) {
	info, err := s.chain.AccountInformation(ctx, address)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Address:      address,
		AlgoBalance:  payout.FromBaseUnits(info.MicroAlgos, algoDecimals),
		AssetBalance: noAsset,
		Recent:       []Row{},
	}

	assetIDStr = strings.TrimSpace(assetIDStr)
	if !digitsOnly.MatchString(assetIDStr) {
		return summary, nil
	}
	assetID, err := strconv.ParseUint(assetIDStr, 10, 64)
	if err != nil {
		return summary, nil
	}
	summary.AssetID = assetID

	decimals, err := s.chain.AssetDecimals(ctx, assetID)
	if err != nil {
		return nil, err
	}
	holding, optedIn := info.Holding(assetID)
	summary.OptedIn = optedIn
	summary.AssetBalance = payout.FromBaseUnits(holding.Amount, decimals)

	summary.Recent = s.recent(ctx, address, assetID, decimals)
	return summary, nil
}

func (s *Service) recent(ctx context.Context, address string, assetID, decimals uint64) []Row {
	transfers, err := s.chain.RecentAssetTransfers(ctx, address, assetID)
	if err != nil {
		event := s.logger.Warn().Err(err).Str("address", address).Uint64("asset_id", assetID)
		if errors.Is(err, algorand.ErrIndexerUnavailable) {
			event.Msg("Indexer not configured, skipping recent transfers")
		} else {
			event.Msg("Failed to load recent transfers")
		}
		return []Row{}
	}

	network := s.chain.Network()
	rows := make([]Row, 0, len(transfers))
	for _, t := range transfers {
		dir := DirectionIn
		if t.From == address {
			dir = DirectionOut
		}
		rows = append(rows, Row{
			ID:          t.ID,
			ShortID:     ShortID(t.ID),
			Round:       t.Round,
			Amount:      payout.FromBaseUnits(t.Amount, decimals),
			From:        t.From,
			To:          t.To,
			Direction:   dir,
			ExplorerURL: algorand.ExplorerURL(network, t.ID),
		})
	}
	return rows
}

// ShortID abbreviates a transaction ID to its first and last six characters.
func ShortID(id string) string {
	if len(id) <= 15 {
		return id
	}
	return id[:6] + "..." + id[len(id)-6:]
}
