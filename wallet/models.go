// Package wallet models customer wallets used to fund drops: a balance with
// a locked portion reserved for pending payments.
package wallet

import (
	"strings"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/types"
)

// Status of a wallet.
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
)

// Wallet holds a customer balance in a single currency.
// Locked is the part of Balance reserved by Lock and released by Unlock or
// consumed by Capture. 0 <= Locked <= Balance always holds.
type Wallet struct {
	types.Entity
	ID       id.WalletID       `json:"id"`
	Owner    id.AccountID      `json:"owner"`
	Currency string            `json:"currency"`
	Balance  types.Money       `json:"balance"`
	Locked   types.Money       `json:"locked"`
	Status   Status            `json:"status"`
	Version  int64             `json:"version"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// New returns an empty active wallet.
func New(owner id.AccountID, currency string) *Wallet {
	cur := strings.ToLower(currency)
	return &Wallet{
		Entity:   types.NewEntity(),
		ID:       id.NewWalletID(),
		Owner:    owner,
		Currency: cur,
		Balance:  types.Zero(cur),
		Locked:   types.Zero(cur),
		Status:   StatusActive,
	}
}

// Available is the spendable part of the balance.
func (w *Wallet) Available() types.Money {
	return types.Money{Amount: w.Balance.Amount - w.Locked.Amount, Currency: w.Currency}
}

// Clone returns a deep copy.
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	if w.Metadata != nil {
		c.Metadata = make(map[string]string, len(w.Metadata))
		for k, v := range w.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// TxType classifies a journal entry.
type TxType string

const (
	TxCredit  TxType = "credit"
	TxDebit   TxType = "debit"
	TxLock    TxType = "lock"
	TxUnlock  TxType = "unlock"
	TxCapture TxType = "capture"
)

// Transaction is an append-only journal entry describing one wallet mutation.
// BalanceAfter and LockedAfter snapshot the wallet right after the entry.
type Transaction struct {
	types.Entity
	ID           id.WalletTxID     `json:"id"`
	WalletID     id.WalletID       `json:"wallet_id"`
	Type         TxType            `json:"type"`
	Amount       types.Money       `json:"amount"`
	Reference    string            `json:"reference,omitempty"`
	BalanceAfter types.Money       `json:"balance_after"`
	LockedAfter  types.Money       `json:"locked_after"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
