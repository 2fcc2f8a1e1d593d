package factory

import (
	"fmt"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

// Operation is one step of a creation plan. The host executes a plan's
// operations strictly in order, each depending on the previous having
// committed, all within one atomic transaction.
type Operation interface {
	// Kind names the operation for logs and audit records.
	Kind() string

	isOperation()
}

// RegisterAccountOp records the account with the module registry,
// claiming the optional namespace and forwarding the namespace fee.
type RegisterAccountOp struct {
	Registration registry.Registration `json:"registration"`
}

func (RegisterAccountOp) Kind() string { return "register-account" }
func (RegisterAccountOp) isOperation() {}

// InstantiateOp deterministically instantiates one sub-entity at its
// predicted address. When Deferred is set the host invokes the deferred
// validator with the run's outcome once the instantiation commits.
type InstantiateOp struct {
	AccountID account.ID               `json:"account_id"`
	Module    account.ModuleDescriptor `json:"module"`
	Address   string                   `json:"address"`
	Admin     string                   `json:"admin"`
	Label     string                   `json:"label"`
	Funds     funds.Funds              `json:"funds,omitzero"`
	Installs  []registry.ModuleInstall `json:"installs,omitzero"`
	Deferred  bool                     `json:"deferred,omitzero"`
}

func (InstantiateOp) Kind() string { return "instantiate" }
func (InstantiateOp) isOperation() {}

// ProxyLabel renders the instantiation label of an account's proxy.
func ProxyLabel(id account.ID) string {
	return fmt.Sprintf("Proxy of Account: %s", id)
}

// ControllerLabel renders the instantiation label of an account's
// controller.
func ControllerLabel(id account.ID) string {
	return fmt.Sprintf("Controller of Account: %s", id)
}
