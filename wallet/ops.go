package wallet

import (
	"fmt"
	"math"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/types"
)

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount types.Money, ref string) (*Transaction, error) {
	if err := w.check(amount); err != nil {
		return nil, err
	}
	if amount.Amount > math.MaxInt64-w.Balance.Amount {
		return nil, fmt.Errorf("%w: crediting %s would overflow balance %s", ErrInvalidAmount, amount, w.Balance)
	}
	w.Balance.Amount += amount.Amount
	return w.journal(TxCredit, amount, ref), nil
}

// Debit removes amount from the available balance.
func (w *Wallet) Debit(amount types.Money, ref string) (*Transaction, error) {
	if err := w.check(amount); err != nil {
		return nil, err
	}
	if w.Available().Amount < amount.Amount {
		return nil, fmt.Errorf("%w: available %s, need %s", ErrInsufficientFunds, w.Available(), amount)
	}
	w.Balance.Amount -= amount.Amount
	return w.journal(TxDebit, amount, ref), nil
}

// Lock reserves amount of the available balance.
func (w *Wallet) Lock(amount types.Money, ref string) (*Transaction, error) {
	if err := w.check(amount); err != nil {
		return nil, err
	}
	if w.Available().Amount < amount.Amount {
		return nil, fmt.Errorf("%w: available %s, need %s", ErrInsufficientFunds, w.Available(), amount)
	}
	w.Locked.Amount += amount.Amount
	return w.journal(TxLock, amount, ref), nil
}

// Unlock releases a previous reservation back to the available balance.
// Unlock is permitted on frozen wallets so pending reservations can be
// unwound.
func (w *Wallet) Unlock(amount types.Money, ref string) (*Transaction, error) {
	if err := w.checkAmount(amount); err != nil {
		return nil, err
	}
	if w.Locked.Amount < amount.Amount {
		return nil, fmt.Errorf("%w: locked %s, need %s", ErrInsufficientLocked, w.Locked, amount)
	}
	w.Locked.Amount -= amount.Amount
	return w.journal(TxUnlock, amount, ref), nil
}

// Capture spends amount out of the locked funds.
func (w *Wallet) Capture(amount types.Money, ref string) (*Transaction, error) {
	if err := w.check(amount); err != nil {
		return nil, err
	}
	if w.Locked.Amount < amount.Amount {
		return nil, fmt.Errorf("%w: locked %s, need %s", ErrInsufficientLocked, w.Locked, amount)
	}
	w.Locked.Amount -= amount.Amount
	w.Balance.Amount -= amount.Amount
	return w.journal(TxCapture, amount, ref), nil
}

// Freeze blocks every mutation except Unlock.
func (w *Wallet) Freeze() error {
	if w.Status == StatusFrozen {
		return ErrAlreadyFrozen
	}
	w.Status = StatusFrozen
	return nil
}

// Unfreeze reactivates a frozen wallet.
func (w *Wallet) Unfreeze() error {
	if w.Status != StatusFrozen {
		return ErrNotFrozen
	}
	w.Status = StatusActive
	return nil
}

func (w *Wallet) check(amount types.Money) error {
	if w.Status == StatusFrozen {
		return ErrWalletFrozen
	}
	return w.checkAmount(amount)
}

func (w *Wallet) checkAmount(amount types.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if !amount.SameCurrency(types.Zero(w.Currency)) {
		return fmt.Errorf("%w: wallet holds %s, got %s", ErrCurrencyMismatch, w.Currency, amount.Currency)
	}
	return nil
}

func (w *Wallet) journal(kind TxType, amount types.Money, ref string) *Transaction {
	return &Transaction{
		Entity:       types.NewEntity(),
		ID:           id.NewWalletTxID(),
		WalletID:     w.ID,
		Type:         kind,
		Amount:       types.Money{Amount: amount.Amount, Currency: w.Currency},
		Reference:    ref,
		BalanceAfter: w.Balance,
		LockedAfter:  w.Locked,
	}
}
