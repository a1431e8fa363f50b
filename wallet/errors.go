package wallet

import "errors"

var (
	ErrInsufficientFunds  = errors.New("wallet: insufficient available funds")
	ErrInsufficientLocked = errors.New("wallet: insufficient locked funds")
	ErrWalletFrozen       = errors.New("wallet: wallet is frozen")
	ErrInvalidAmount      = errors.New("wallet: amount must be positive")
	ErrCurrencyMismatch   = errors.New("wallet: currency mismatch")
	ErrAlreadyFrozen      = errors.New("wallet: already frozen")
	ErrNotFrozen          = errors.New("wallet: not frozen")
)
