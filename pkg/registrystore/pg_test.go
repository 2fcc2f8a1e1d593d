package registrystore

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/entitystore"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/pgutil"
	mghelper "github.com/chainsafe/account-factory/pkg/pgutil/migrations"
	"github.com/chainsafe/account-factory/pkg/registry"
)

func setupStore(t *testing.T) (context.Context, *pgStore, entitystore.Store) {
	t.Helper()

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &ModuleDao{}, &ParamsDao{}, &AccountDao{}, &entitystore.EntityDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_modules_module_id_version ON modules (module_id, version)"); err != nil {
		t.Fatalf("failed to create module version index: %v", err)
	}

	entities := entitystore.NewStore(db)
	return ctx, NewStore(db, entities), entities
}

func newFunds(t *testing.T, pairs ...string) funds.Funds {
	t.Helper()

	if len(pairs)%2 != 0 {
		t.Fatalf("newFunds wants denom/amount pairs, got %d values", len(pairs))
	}
	coins := make([]funds.Coin, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		amount, err := decimal.NewFromString(pairs[i+1])
		if err != nil {
			t.Fatalf("failed to parse amount %q: %v", pairs[i+1], err)
		}
		coins = append(coins, funds.Coin{Denom: pairs[i], Amount: amount})
	}
	return funds.New(coins...)
}

func newTestModule(moduleID, version string, codeID uint64, installFee funds.Funds) *Module {
	return &Module{
		Descriptor: account.ModuleDescriptor{
			ID:       moduleID,
			Version:  version,
			Kind:     account.ModuleKindAccountBase,
			CodeID:   codeID,
			Checksum: crypto.Keccak256([]byte(moduleID + "@" + version)),
		},
		InstallFee: installFee,
	}
}

func newTestRegistration(sequence uint32, namespace string, fee funds.Funds) registry.Registration {
	return registry.Registration{
		AccountID: account.NewLocalID(sequence),
		Base: account.Base{
			Controller: "0x1111111111111111111111111111111111111111",
			Proxy:      "0x2222222222222222222222222222222222222222",
		},
		Governance: account.ResolvedGovernance{
			Kind:  account.GovernanceIndividual,
			Owner: "0x3333333333333333333333333333333333333333",
		},
		Name:      formatName(sequence),
		Namespace: namespace,
		Fee:       fee,
	}
}

func formatName(sequence uint32) string {
	return "Account " + account.NewLocalID(sequence).String()
}

func TestRegistryPGStore_ModuleCatalog(t *testing.T) {
	ctx, s, _ := setupStore(t)

	_, err := s.ResolveModule(ctx, "account:proxy")
	if !errors.Is(err, registry.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}

	v1 := newTestModule("account:proxy", "1.0.0", 1, nil)
	if err := s.RegisterModule(ctx, v1); err != nil {
		t.Fatalf("RegisterModule(v1) failed: %v", err)
	}

	got, err := s.ResolveModule(ctx, "account:proxy")
	if err != nil {
		t.Fatalf("ResolveModule() failed: %v", err)
	}
	if got.String() != "account:proxy@1.0.0" {
		t.Fatalf("descriptor mismatch: got %s", got)
	}
	if !got.ChecksumEqual(v1.Descriptor.Checksum) {
		t.Fatalf("checksum mismatch")
	}

	v2 := newTestModule("account:proxy", "1.1.0", 7, nil)
	if err := s.RegisterModule(ctx, v2); err != nil {
		t.Fatalf("RegisterModule(v2) failed: %v", err)
	}

	got, err = s.ResolveModule(ctx, "account:proxy")
	if err != nil {
		t.Fatalf("ResolveModule() failed: %v", err)
	}
	if got.Version != "1.1.0" || got.CodeID != 7 {
		t.Fatalf("expected latest version to win, got %s code %d", got, got.CodeID)
	}

	err = s.RegisterModule(ctx, newTestModule("account:proxy", "1.1.0", 9, nil))
	if !errors.Is(err, ErrModuleVersionExists) {
		t.Fatalf("expected ErrModuleVersionExists, got %v", err)
	}

	if err := s.RegisterModule(ctx, newTestModule("account:controller", "1.0.0", 2, nil)); err != nil {
		t.Fatalf("RegisterModule(controller) failed: %v", err)
	}

	descriptors, err := s.ResolveModules(ctx, []string{"account:controller", "account:proxy"})
	if err != nil {
		t.Fatalf("ResolveModules() failed: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].ID != "account:controller" || descriptors[1].ID != "account:proxy" {
		t.Fatalf("order not preserved: %s, %s", descriptors[0].ID, descriptors[1].ID)
	}
}

func TestRegistryPGStore_RegisterAccount(t *testing.T) {
	ctx, s, _ := setupStore(t)

	reg := newTestRegistration(0, "first-namespace", nil)
	reg.Description = "the genesis account"
	reg.Link = "https://example.com/accounts/0"
	reg.BaseAsset = "tokena"
	if err := s.RegisterAccount(ctx, reg); err != nil {
		t.Fatalf("RegisterAccount() failed: %v", err)
	}

	got, err := s.Account(ctx, reg.AccountID)
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if !got.AccountID.Equal(reg.AccountID) {
		t.Fatalf("account id mismatch: got %s want %s", got.AccountID, reg.AccountID)
	}
	if got.Base != reg.Base {
		t.Fatalf("base mismatch: got %+v want %+v", got.Base, reg.Base)
	}
	if got.Governance != reg.Governance {
		t.Fatalf("governance mismatch: got %+v want %+v", got.Governance, reg.Governance)
	}
	if got.Namespace != reg.Namespace || got.Description != reg.Description || got.Link != reg.Link || got.BaseAsset != reg.BaseAsset {
		t.Fatalf("metadata mismatch: got %+v", got)
	}

	err = s.RegisterAccount(ctx, newTestRegistration(0, "", nil))
	if !errors.Is(err, registry.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	err = s.RegisterAccount(ctx, newTestRegistration(1, "first-namespace", nil))
	if !errors.Is(err, registry.ErrNamespaceTaken) {
		t.Fatalf("expected ErrNamespaceTaken, got %v", err)
	}

	if err := s.RegisterAccount(ctx, newTestRegistration(1, "", nil)); err != nil {
		t.Fatalf("RegisterAccount(no namespace) failed: %v", err)
	}

	_, err = s.Account(ctx, account.NewLocalID(99))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRegistryPGStore_NamespaceFeeEnforcement(t *testing.T) {
	ctx, s, _ := setupStore(t)

	// Unset params quote as a free namespace.
	fee, err := s.NamespaceFee(ctx)
	if err != nil {
		t.Fatalf("NamespaceFee() failed: %v", err)
	}
	if !fee.IsZero() {
		t.Fatalf("expected free namespace by default, got %s", fee)
	}

	quoted := newFunds(t, "tokena", "10")
	if err := s.SetNamespaceFee(ctx, quoted); err != nil {
		t.Fatalf("SetNamespaceFee() failed: %v", err)
	}

	fee, err = s.NamespaceFee(ctx)
	if err != nil {
		t.Fatalf("NamespaceFee() failed: %v", err)
	}
	if !fee.Equal(quoted) {
		t.Fatalf("fee mismatch: got %s want %s", fee, quoted)
	}

	err = s.RegisterAccount(ctx, newTestRegistration(0, "underpaid", newFunds(t, "tokena", "5")))
	var mismatch *funds.FeeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected FeeMismatchError, got %v", err)
	}
	if mismatch.Error() != "invalid fee payment sent. Expected 10tokena, sent 5tokena" {
		t.Fatalf("unexpected message: %s", mismatch.Error())
	}

	if err := s.RegisterAccount(ctx, newTestRegistration(0, "paid", quoted)); err != nil {
		t.Fatalf("RegisterAccount(paid) failed: %v", err)
	}

	err = s.RegisterAccount(ctx, newTestRegistration(1, "", newFunds(t, "tokena", "10")))
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected FeeMismatchError without namespace, got %v", err)
	}
}

func TestRegistryPGStore_AssertModuleValidity(t *testing.T) {
	ctx, s, entities := setupStore(t)

	id := account.NewLocalID(0)
	desc := account.ModuleDescriptor{
		ID:       "account:proxy",
		Version:  "1.0.0",
		Kind:     account.ModuleKindAccountBase,
		CodeID:   1,
		Checksum: crypto.Keccak256([]byte("proxy artifact")),
	}

	address := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	err := entities.CreateEntity(ctx, &entitystore.Entity{
		Address:   address,
		AccountID: id,
		Module:    desc,
		Admin:     "0x1111111111111111111111111111111111111111",
		Label:     "Proxy of Account: local-0",
	})
	if err != nil {
		t.Fatalf("CreateEntity() failed: %v", err)
	}

	if err := s.AssertModuleValidity(ctx, desc, address); err != nil {
		t.Fatalf("AssertModuleValidity() failed: %v", err)
	}

	wrongCode := desc
	wrongCode.CodeID = 9
	err = s.AssertModuleValidity(ctx, wrongCode, address)
	if !errors.Is(err, registry.ErrDeploymentMismatch) {
		t.Fatalf("expected ErrDeploymentMismatch for code id, got %v", err)
	}

	wrongChecksum := desc
	wrongChecksum.Checksum = crypto.Keccak256([]byte("other artifact"))
	err = s.AssertModuleValidity(ctx, wrongChecksum, address)
	if !errors.Is(err, registry.ErrDeploymentMismatch) {
		t.Fatalf("expected ErrDeploymentMismatch for checksum, got %v", err)
	}

	wrongKind := desc
	wrongKind.Kind = "service"
	err = s.AssertModuleValidity(ctx, wrongKind, address)
	var kindErr *account.WrongModuleKindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected WrongModuleKindError, got %v", err)
	}

	err = s.AssertModuleValidity(ctx, desc, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	if !errors.Is(err, registry.ErrDeploymentMismatch) {
		t.Fatalf("expected ErrDeploymentMismatch for vacant address, got %v", err)
	}
}

func TestRegistryPGStore_SimulateInstallCost(t *testing.T) {
	ctx, s, _ := setupStore(t)

	if err := s.RegisterModule(ctx, newTestModule("payments", "1.0.0", 11, newFunds(t, "tokena", "5"))); err != nil {
		t.Fatalf("RegisterModule(payments) failed: %v", err)
	}
	if err := s.RegisterModule(ctx, newTestModule("staking", "1.0.0", 12, newFunds(t, "tokena", "3", "tokenb", "2"))); err != nil {
		t.Fatalf("RegisterModule(staking) failed: %v", err)
	}
	if err := s.RegisterModule(ctx, newTestModule("notes", "1.0.0", 13, nil)); err != nil {
		t.Fatalf("RegisterModule(notes) failed: %v", err)
	}

	total, err := s.SimulateInstallCost(ctx, []registry.ModuleInstall{
		{ModuleID: "payments"},
		{ModuleID: "staking"},
		{ModuleID: "notes"},
	})
	if err != nil {
		t.Fatalf("SimulateInstallCost() failed: %v", err)
	}
	want := newFunds(t, "tokena", "8", "tokenb", "2")
	if !total.Equal(want) {
		t.Fatalf("cost mismatch: got %s want %s", total, want)
	}

	total, err = s.SimulateInstallCost(ctx, nil)
	if err != nil {
		t.Fatalf("SimulateInstallCost(nil) failed: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("expected zero cost, got %s", total)
	}

	_, err = s.SimulateInstallCost(ctx, []registry.ModuleInstall{{ModuleID: "missing"}})
	if !errors.Is(err, registry.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}
