package algorand

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

var ErrMalformedTxn = errors.New("malformed signed transaction")

// Prepare encodes an unsigned transaction for a wallet.
func Prepare(tx types.Transaction) PreparedTxn {
	return PreparedTxn{
		TxID: crypto.GetTxID(tx),
		Txn:  base64.StdEncoding.EncodeToString(msgpack.Encode(&tx)),
	}
}

// SignedTxn is a wallet-signed transaction with its raw bytes kept for submission.
type SignedTxn struct {
	TxID   string
	Sender string
	Txn    types.Transaction
	Raw    []byte
}

// DecodeSigned parses a base64 msgpack signed transaction produced by a wallet.
func DecodeSigned(b64 string) (*SignedTxn, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTxn, err)
	}

	var stx types.SignedTxn
	if err = msgpack.Decode(raw, &stx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTxn, err)
	}
	if stx.Sig == (types.Signature{}) && stx.Msig.Blank() && stx.Lsig.Blank() {
		return nil, fmt.Errorf("%w: transaction is not signed", ErrMalformedTxn)
	}
	// One entry is one transaction: trailing or non-canonical bytes would be submitted unchecked.
	if !bytes.Equal(msgpack.Encode(&stx), raw) {
		return nil, fmt.Errorf("%w: unexpected bytes after transaction", ErrMalformedTxn)
	}

	return &SignedTxn{
		TxID:   crypto.GetTxID(stx.Txn),
		Sender: stx.Txn.Sender.String(),
		Txn:    stx.Txn,
		Raw:    raw,
	}, nil
}

// Group assigns a shared group ID to txns, in order.
func Group(txns ...types.Transaction) ([]types.Transaction, error) {
	gid, err := crypto.ComputeGroupID(txns)
	if err != nil {
		return nil, fmt.Errorf("failed to compute group id: %w", err)
	}
	out := make([]types.Transaction, len(txns))
	for i, tx := range txns {
		tx.Group = gid
		out[i] = tx
	}
	return out, nil
}
