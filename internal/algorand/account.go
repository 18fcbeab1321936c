package algorand

import (
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Signer signs transactions on behalf of a service-held account.
type Signer interface {
	Address() types.Address
	Sign(tx types.Transaction) (txID string, signed []byte, err error)
	TransactionSigner() transaction.TransactionSigner
}

// Account is a local ed25519 account, used for the treasury.
type Account struct {
	acct crypto.Account
}

// AccountFromMnemonic restores an account from its 25-word mnemonic.
func AccountFromMnemonic(phrase string) (*Account, error) {
	sk, err := mnemonic.ToPrivateKey(strings.Join(strings.Fields(phrase), " "))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mnemonic: %w", err)
	}
	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("failed to restore account: %w", err)
	}
	return &Account{acct: acct}, nil
}

func NewAccount(acct crypto.Account) *Account {
	return &Account{acct: acct}
}

func (a *Account) Address() types.Address {
	return a.acct.Address
}

func (a *Account) Sign(tx types.Transaction) (string, []byte, error) {
	txID, signed, err := crypto.SignTransaction(a.acct.PrivateKey, tx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return txID, signed, nil
}

func (a *Account) TransactionSigner() transaction.TransactionSigner {
	return transaction.BasicAccountTransactionSigner{Account: a.acct}
}
