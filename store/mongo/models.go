package mongo

import (
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

	ID           string            `grove:"id,pk"          bson:"_id"`
	OwnerID      string            `grove:"owner_id"       bson:"owner_id"`
	OrderID      string            `grove:"order_id"       bson:"order_id"`
	PaymentPlan  string            `grove:"payment_plan"   bson:"payment_plan"`
	Currency     string            `grove:"currency"       bson:"currency"`
	TotalAmount  int64             `grove:"total_amount"   bson:"total_amount"`
	DropAmount   int64             `grove:"drop_amount"    bson:"drop_amount"`
	AmountPaid   int64             `grove:"amount_paid"    bson:"amount_paid"`
	Frequency    string            `grove:"frequency"      bson:"frequency"`
	TotalDrops   int               `grove:"total_drops"    bson:"total_drops"`
	DropsPaid    int               `grove:"drops_paid"     bson:"drops_paid"`
	DropSchedule []dropModel       `grove:"drop_schedule"  bson:"drop_schedule"`
	NextDropDate *time.Time        `grove:"next_drop_date" bson:"next_drop_date,omitempty"`
	Status       string            `grove:"status"         bson:"status"`
	IsCompleted  bool              `grove:"is_completed"   bson:"is_completed"`
	StartDate    time.Time         `grove:"start_date"     bson:"start_date"`
	EndDate      *time.Time        `grove:"end_date"       bson:"end_date,omitempty"`
	PausedAt     *time.Time        `grove:"paused_at"      bson:"paused_at,omitempty"`
	CancelledAt  *time.Time        `grove:"cancelled_at"   bson:"cancelled_at,omitempty"`
	Version      int64             `grove:"version"        bson:"version"`
	Metadata     map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"     bson:"updated_at"`
}

type dropModel struct {
	ID             string     `bson:"id"`
	ScheduledDate  time.Time  `bson:"scheduled_date"`
	NextDropDate   *time.Time `bson:"next_drop_date,omitempty"`
	Products       []string   `bson:"products,omitempty"`
	Amount         int64      `bson:"amount"`
	IsPaid         bool       `bson:"is_paid"`
	PaidDate       *time.Time `bson:"paid_date,omitempty"`
	TransactionRef string     `bson:"transaction_ref,omitempty"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	drops := make([]dropModel, len(s.DropSchedule))
	for i, d := range s.DropSchedule {
		products := make([]string, len(d.Products))
		for j, p := range d.Products {
			products[j] = p.String()
		}
		drops[i] = dropModel{
			ID:             d.ID.String(),
			ScheduledDate:  d.ScheduledDate,
			NextDropDate:   d.NextDropDate,
			Products:       products,
			Amount:         d.Amount.Amount,
			IsPaid:         d.IsPaid,
			PaidDate:       d.PaidDate,
			TransactionRef: d.TransactionRef,
		}
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
		DropSchedule: drops,
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
	}
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

	money := func(amount int64) types.Money {
		return types.Money{Amount: amount, Currency: m.Currency}
	}

	schedule := make([]subscription.DropScheduleItem, len(m.DropSchedule))
	for i, d := range m.DropSchedule {
		dropID, err := id.ParseDropID(d.ID)
		if err != nil {
			return nil, err
		}
		var products []id.ProductID
		for _, p := range d.Products {
			productID, err := id.ParseProductID(p)
			if err != nil {
				return nil, err
			}
			products = append(products, productID)
		}
		schedule[i] = subscription.DropScheduleItem{
			ID:             dropID,
			ScheduledDate:  d.ScheduledDate.UTC(),
			NextDropDate:   utc(d.NextDropDate),
			Products:       products,
			Amount:         money(d.Amount),
			IsPaid:         d.IsPaid,
			PaidDate:       utc(d.PaidDate),
			TransactionRef: d.TransactionRef,
		}
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
		NextDropDate: utc(m.NextDropDate),
		Status:       subscription.Status(m.Status),
		IsCompleted:  m.IsCompleted,
		StartDate:    m.StartDate.UTC(),
		EndDate:      utc(m.EndDate),
		PausedAt:     utc(m.PausedAt),
		CancelledAt:  utc(m.CancelledAt),
		Version:      m.Version,
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	grove.BaseModel `grove:"table:drops_wallets"`

	ID        string            `grove:"id,pk"      bson:"_id"`
	OwnerID   string            `grove:"owner_id"   bson:"owner_id"`
	Currency  string            `grove:"currency"   bson:"currency"`
	Balance   int64             `grove:"balance"    bson:"balance"`
	Locked    int64             `grove:"locked"     bson:"locked"`
	Status    string            `grove:"status"     bson:"status"`
	Version   int64             `grove:"version"    bson:"version"`
	Metadata  map[string]string `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
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

	ID           string            `grove:"id,pk"         bson:"_id"`
	WalletID     string            `grove:"wallet_id"     bson:"wallet_id"`
	Type         string            `grove:"type"          bson:"type"`
	Currency     string            `grove:"currency"      bson:"currency"`
	Amount       int64             `grove:"amount"        bson:"amount"`
	Reference    string            `grove:"reference"     bson:"reference,omitempty"`
	BalanceAfter int64             `grove:"balance_after" bson:"balance_after"`
	LockedAfter  int64             `grove:"locked_after"  bson:"locked_after"`
	Metadata     map[string]string `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
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

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
