package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:drops_subscriptions"`

	ID           string            `grove:"id,pk"`
	OwnerID      string            `grove:"owner_id"`
	OrderID      string            `grove:"order_id"`
	PaymentPlan  string            `grove:"payment_plan"`
	Currency     string            `grove:"currency"`
	TotalAmount  int64             `grove:"total_amount"`
	DropAmount   int64             `grove:"drop_amount"`
	AmountPaid   int64             `grove:"amount_paid"`
	Frequency    string            `grove:"frequency"`
	TotalDrops   int               `grove:"total_drops"`
	DropsPaid    int               `grove:"drops_paid"`
	DropSchedule json.RawMessage   `grove:"drop_schedule,type:jsonb"`
	NextDropDate *time.Time        `grove:"next_drop_date"`
	Status       string            `grove:"status"`
	IsCompleted  bool              `grove:"is_completed"`
	StartDate    time.Time         `grove:"start_date"`
	EndDate      *time.Time        `grove:"end_date"`
	PausedAt     *time.Time        `grove:"paused_at"`
	CancelledAt  *time.Time        `grove:"cancelled_at"`
	Version      int64             `grove:"version"`
	Metadata     map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt    time.Time         `grove:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) (*subscriptionModel, error) {
	schedule, err := json.Marshal(s.DropSchedule)
	if err != nil {
		return nil, fmt.Errorf("drops/postgres: encode drop schedule: %w", err)
	}

	return &subscriptionModel{
		ID:           s.ID.String(),
		OwnerID:      s.Owner.String(),
		OrderID:      s.Order.String(),
		PaymentPlan:  string(s.PaymentPlan),
		Currency:     s.TotalAmount.Currency,
		TotalAmount:  s.TotalAmount.Amount,
		DropAmount:   s.DropAmount.Amount,
		AmountPaid:   s.AmountPaid.Amount,
		Frequency:    string(s.Frequency),
		TotalDrops:   s.TotalDrops,
		DropsPaid:    s.DropsPaid,
		DropSchedule: schedule,
		NextDropDate: s.NextDropDate,
		Status:       string(s.Status),
		IsCompleted:  s.IsCompleted,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		PausedAt:     s.PausedAt,
		CancelledAt:  s.CancelledAt,
		Version:      s.Version,
		Metadata:     s.Metadata,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseAccountID(m.OwnerID)
	if err != nil {
		return nil, err
	}
	orderID, err := id.ParseOrderID(m.OrderID)
	if err != nil {
		return nil, err
	}

	var schedule []subscription.DropScheduleItem
	if len(m.DropSchedule) > 0 {
		if err := json.Unmarshal(m.DropSchedule, &schedule); err != nil {
			return nil, fmt.Errorf("drops/postgres: decode drop schedule of %s: %w", m.ID, err)
		}
	}

	money := func(amount int64) types.Money {
		return types.Money{Amount: amount, Currency: m.Currency}
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           subID,
		Owner:        ownerID,
		Order:        orderID,
		PaymentPlan:  subscription.PaymentPlan(m.PaymentPlan),
		TotalAmount:  money(m.TotalAmount),
		DropAmount:   money(m.DropAmount),
		Frequency:    subscription.Frequency(m.Frequency),
		TotalDrops:   m.TotalDrops,
		DropsPaid:    m.DropsPaid,
		AmountPaid:   money(m.AmountPaid),
		DropSchedule: schedule,
		NextDropDate: m.NextDropDate,
		Status:       subscription.Status(m.Status),
		IsCompleted:  m.IsCompleted,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		PausedAt:     m.PausedAt,
		CancelledAt:  m.CancelledAt,
		Version:      m.Version,
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:drops_wallets"`

	ID        string            `grove:"id,pk"`
	OwnerID   string            `grove:"owner_id"`
	Currency  string            `grove:"currency"`
	Balance   int64             `grove:"balance"`
	Locked    int64             `grove:"locked"`
	Status    string            `grove:"status"`
	Version   int64             `grove:"version"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"`
}

func toWalletModel(w *wallet.Wallet) *walletModel {
	return &walletModel{
		ID:        w.ID.String(),
		OwnerID:   w.Owner.String(),
		Currency:  w.Currency,
		Balance:   w.Balance.Amount,
		Locked:    w.Locked.Amount,
		Status:    string(w.Status),
		Version:   w.Version,
		Metadata:  w.Metadata,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*wallet.Wallet, error) {
	walletID, err := id.ParseWalletID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseAccountID(m.OwnerID)
	if err != nil {
		return nil, err
	}

	return &wallet.Wallet{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       walletID,
		Owner:    ownerID,
		Currency: m.Currency,
		Balance:  types.Money{Amount: m.Balance, Currency: m.Currency},
		Locked:   types.Money{Amount: m.Locked, Currency: m.Currency},
		Status:   wallet.Status(m.Status),
		Version:  m.Version,
		Metadata: m.Metadata,
	}, nil
}

type walletTxModel struct {
	grove.BaseModel `grove:"table:drops_wallet_transactions"`

	ID           string            `grove:"id,pk"`
	WalletID     string            `grove:"wallet_id"`
	Type         string            `grove:"type"`
	Currency     string            `grove:"currency"`
	Amount       int64             `grove:"amount"`
	Reference    string            `grove:"reference"`
	BalanceAfter int64             `grove:"balance_after"`
	LockedAfter  int64             `grove:"locked_after"`
	Metadata     map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt    time.Time         `grove:"created_at"`
}

func toWalletTxModel(tx *wallet.Transaction) *walletTxModel {
	return &walletTxModel{
		ID:           tx.ID.String(),
		WalletID:     tx.WalletID.String(),
		Type:         string(tx.Type),
		Currency:     tx.Amount.Currency,
		Amount:       tx.Amount.Amount,
		Reference:    tx.Reference,
		BalanceAfter: tx.BalanceAfter.Amount,
		LockedAfter:  tx.LockedAfter.Amount,
		Metadata:     tx.Metadata,
		CreatedAt:    tx.CreatedAt,
	}
}

func fromWalletTxModel(m *walletTxModel) (*wallet.Transaction, error) {
	txID, err := id.ParseWalletTxID(m.ID)
	if err != nil {
		return nil, err
	}
	walletID, err := id.ParseWalletID(m.WalletID)
	if err != nil {
		return nil, err
	}

	return &wallet.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.CreatedAt,
		},
		ID:           txID,
		WalletID:     walletID,
		Type:         wallet.TxType(m.Type),
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
		Reference:    m.Reference,
		BalanceAfter: types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		LockedAfter:  types.Money{Amount: m.LockedAfter, Currency: m.Currency},
		Metadata:     m.Metadata,
	}, nil
}
