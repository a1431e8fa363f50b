package wallet

import (
	"context"

	"github.com/xraph/drops/id"
)

// ListOpts pages through a wallet journal, newest first.
type ListOpts struct {
	Type   TxType
	Limit  int
	Offset int
}

type Store interface {
	Create(ctx context.Context, w *Wallet) error
	Get(ctx context.Context, walletID id.WalletID) (*Wallet, error)
	GetByOwner(ctx context.Context, owner id.AccountID, currency string) (*Wallet, error)
	Update(ctx context.Context, w *Wallet) error
	AppendTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, walletID id.WalletID, opts ListOpts) ([]*Transaction, error)
}
