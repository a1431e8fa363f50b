package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/drops/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"SubscriptionID", id.NewSubscriptionID, "sub_"},
		{"DropID", id.NewDropID, "drop_"},
		{"AccountID", id.NewAccountID, "acct_"},
		{"OrderID", id.NewOrderID, "ord_"},
		{"ProductID", id.NewProductID, "prod_"},
		{"WalletID", id.NewWalletID, "wal_"},
		{"WalletTxID", id.NewWalletTxID, "wtx_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
		{"EventID", id.NewEventID, "evt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"SubscriptionID", id.NewSubscriptionID, id.ParseSubscriptionID},
		{"DropID", id.NewDropID, id.ParseDropID},
		{"AccountID", id.NewAccountID, id.ParseAccountID},
		{"OrderID", id.NewOrderID, id.ParseOrderID},
		{"ProductID", id.NewProductID, id.ParseProductID},
		{"WalletID", id.NewWalletID, id.ParseWalletID},
		{"WalletTxID", id.NewWalletTxID, id.ParseWalletTxID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
		{"EventID", id.NewEventID, id.ParseEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseSubscriptionID rejects ord_", id.NewOrderID().String(), id.ParseSubscriptionID},
		{"ParseOrderID rejects acct_", id.NewAccountID().String(), id.ParseOrderID},
		{"ParseAccountID rejects wal_", id.NewWalletID().String(), id.ParseAccountID},
		{"ParseWalletID rejects wtx_", id.NewWalletTxID().String(), id.ParseWalletID},
		{"ParseWalletTxID rejects drop_", id.NewDropID().String(), id.ParseWalletTxID},
		{"ParseDropID rejects prod_", id.NewProductID().String(), id.ParseDropID},
		{"ParseProductID rejects pay_", id.NewPaymentID().String(), id.ParseProductID},
		{"ParsePaymentID rejects sub_", id.NewSubscriptionID().String(), id.ParsePaymentID},
		{"ParseEventID rejects pay_", id.NewPaymentID().String(), id.ParseEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewSubscriptionID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixSubscription)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixWallet)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewOrderID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewWalletID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewSubscriptionID()
	b := id.NewSubscriptionID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewSubscriptionID() calls returned the same ID: %q", a.String())
	}
}
