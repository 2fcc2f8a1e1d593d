package funds

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func coins(t *testing.T, pairs ...string) Funds {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("coins wants denom/amount pairs")
	}
	f := Funds{}
	for i := 0; i < len(pairs); i += 2 {
		f.add(pairs[i], dec(t, pairs[i+1]))
	}
	return f
}

func TestSubExact(t *testing.T) {
	deposit := coins(t, "tokena", "10", "tokenb", "4")
	rest, err := deposit.Sub(coins(t, "tokena", "10", "tokenb", "1"))
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if !rest.Equal(coins(t, "tokenb", "3")) {
		t.Fatalf("remainder %s", rest)
	}
	if _, held := rest["tokena"]; held {
		t.Fatal("zero entry retained after exact subtraction")
	}
	// The receiver is untouched.
	if !deposit.Equal(coins(t, "tokena", "10", "tokenb", "4")) {
		t.Fatalf("receiver mutated: %s", deposit)
	}
}

func TestSubShortfall(t *testing.T) {
	_, err := coins(t, "tokena", "5").Sub(coins(t, "tokena", "6"))
	if err == nil {
		t.Fatal("expected shortfall")
	}
	var shortfall *ShortfallError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected ShortfallError, got %v", err)
	}
	if shortfall.Denom != "tokena" {
		t.Fatalf("shortfall denom %q", shortfall.Denom)
	}
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatal("shortfall does not match ErrInsufficientDeposit")
	}
}

func TestSubMissingDenomination(t *testing.T) {
	_, err := coins(t, "tokena", "5").Sub(coins(t, "tokenb", "1"))
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
}

func TestPartitionHappyPath(t *testing.T) {
	deposit := coins(t, "tokena", "10", "tokenb", "7")
	install := coins(t, "tokena", "6")
	namespace := coins(t, "tokena", "1", "tokenb", "7")

	buckets, err := Partition(deposit, install, namespace)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if !buckets.Install.Equal(install) {
		t.Fatalf("install bucket %s", buckets.Install)
	}
	if !buckets.Namespace.Equal(namespace) {
		t.Fatalf("namespace bucket %s", buckets.Namespace)
	}
	if !buckets.Residual.Equal(coins(t, "tokena", "3")) {
		t.Fatalf("residual bucket %s", buckets.Residual)
	}

	// Named partitions plus residual reassemble the deposit.
	total := buckets.Install.Add(buckets.Namespace).Add(buckets.Residual)
	if !total.Equal(deposit) {
		t.Fatalf("buckets sum to %s, deposit was %s", total, deposit)
	}
}

func TestPartitionNoNamespace(t *testing.T) {
	buckets, err := Partition(coins(t, "tokena", "10"), coins(t, "tokena", "10"), Funds{})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if !buckets.Residual.IsZero() {
		t.Fatalf("expected empty residual, got %s", buckets.Residual)
	}
	if !buckets.Namespace.IsZero() {
		t.Fatalf("expected empty namespace bucket, got %s", buckets.Namespace)
	}
}

func TestPartitionShortfall(t *testing.T) {
	deposit := coins(t, "tokena", "5")
	install := coins(t, "tokena", "4")
	namespace := coins(t, "tokena", "2")

	_, err := Partition(deposit, install, namespace)
	if err == nil {
		t.Fatal("expected fee mismatch")
	}
	var mismatch *FeeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected FeeMismatchError, got %v", err)
	}
	if !mismatch.Expected.Equal(coins(t, "tokena", "6")) {
		t.Fatalf("expected total %s", mismatch.Expected)
	}
	if !mismatch.Sent.Equal(deposit) {
		t.Fatalf("sent %s", mismatch.Sent)
	}
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatal("mismatch does not match ErrInsufficientDeposit")
	}
	if got, want := mismatch.Error(), "invalid fee payment sent. Expected 6tokena, sent 5tokena"; got != want {
		t.Fatalf("message %q, want %q", got, want)
	}
	// Inputs stay untouched on failure.
	if !deposit.Equal(coins(t, "tokena", "5")) {
		t.Fatalf("deposit mutated: %s", deposit)
	}
}

func TestPartitionShortfallOnMissingDenom(t *testing.T) {
	_, err := Partition(coins(t, "tokena", "100"), coins(t, "tokenb", "1"), Funds{})
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
}

func TestValid(t *testing.T) {
	if err := coins(t, "tokena", "10").Valid(); err != nil {
		t.Fatalf("valid funds rejected: %v", err)
	}
	if err := (Funds{"tokena": dec(t, "-1")}).Valid(); err == nil {
		t.Fatal("negative amount accepted")
	}
	if err := (Funds{"": dec(t, "1")}).Valid(); err == nil {
		t.Fatal("empty denomination accepted")
	}
}

func TestString(t *testing.T) {
	if got := (Funds{}).String(); got != "none" {
		t.Fatalf("empty funds rendered as %q", got)
	}
	f := coins(t, "tokenb", "5", "tokena", "10")
	if got := f.String(); got != "10tokena,5tokenb" {
		t.Fatalf("rendered as %q", got)
	}
}
