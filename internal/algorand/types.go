package algorand

import (
	"errors"
	"fmt"
)

// MicroAlgosPerAlgo is the ALGO base unit scale.
const MicroAlgosPerAlgo = 1_000_000

var (
	ErrIndexerUnavailable = errors.New("indexer is not configured")
	ErrEmptyGroup         = errors.New("no transactions to submit")
)

// AccountInfo is the subset of algod account information the service reads.
type AccountInfo struct {
	Address    string
	MicroAlgos uint64
	MinBalance uint64
	Holdings   []Holding
}

// Holding is a single ASA balance in base units.
type Holding struct {
	AssetID uint64
	Amount  uint64
	Frozen  bool
}

// Holding returns the account's holding for assetID and whether the account opted in.
func (a AccountInfo) Holding(assetID uint64) (Holding, bool) {
	for _, h := range a.Holdings {
		if h.AssetID == assetID {
			return h, true
		}
	}
	return Holding{}, false
}

// Transfer is an indexed asset transfer row.
type Transfer struct {
	ID      string
	Round   uint64
	AssetID uint64
	Amount  uint64
	From    string
	To      string
}

// Confirmation is what algod reports once a group is in a block.
type Confirmation struct {
	TxID  string
	Round uint64
}

// PreparedTxn is an unsigned transaction handed to a wallet for signing.
type PreparedTxn struct {
	TxID string
	// Txn is the base64 msgpack encoding of the unsigned transaction.
	Txn string
}

// ExplorerURL links a transaction on Lora for the given network.
func ExplorerURL(network, txID string) string {
	if network == "" {
		network = "testnet"
	}
	return fmt.Sprintf("https://lora.algokit.io/%s/tx/%s/", network, txID)
}
