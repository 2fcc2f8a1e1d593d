// Package factory defines the domain model of the account provisioning
// protocol: configuration, creation requests, the transient Context
// bridging the two protocol phases, and the events the protocol emits.
package factory

import (
	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

// Well-known module identifiers resolved for every account.
const (
	ControllerModuleID = "account:controller"
	ProxyModuleID      = "account:proxy"
)

// BootstrapSequence is the reserved first local sequence; allocating it
// requires the owner capability.
const BootstrapSequence uint32 = 0

// Config holds the factory's persisted configuration. FactoryAddress is
// the deployment's own address, fixed at bootstrap; the collaborator
// addresses are mutable through UpdateConfig by the owner.
type Config struct {
	Owner                   string `json:"owner"`
	FactoryAddress          string `json:"factory_address"`
	RegistryAddress         string `json:"registry_address"`
	ComponentFactoryAddress string `json:"component_factory_address"`
	// GatewayAddress is the remote-origin gateway; empty when no remote
	// creation path is configured.
	GatewayAddress string `json:"gateway_address,omitzero"`
}

// ConfigPatch carries optional replacement values for the mutable
// configuration fields. Nil fields are left unchanged.
type ConfigPatch struct {
	RegistryAddress         *string `json:"registry_address,omitzero"`
	ComponentFactoryAddress *string `json:"component_factory_address,omitzero"`
	GatewayAddress          *string `json:"gateway_address,omitzero"`
}

// CreateAccountRequest is the input of the creation protocol. Caller is
// the authenticated requester, never taken from the request body.
type CreateAccountRequest struct {
	Caller     string             `json:"-"`
	Governance account.Governance `json:"governance"`

	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	Link        string `json:"link,omitzero"`

	// Namespace optionally claims a registry namespace for the account;
	// claiming one incurs the namespace registration fee.
	Namespace string `json:"namespace,omitzero"`

	// BaseAsset optionally names the account's accounting denomination.
	BaseAsset string `json:"base_asset,omitzero"`

	// Installs are the sub-components to install on the controller.
	Installs []registry.ModuleInstall `json:"installs,omitzero"`

	// AccountID pins the identifier instead of allocating one: local
	// identifiers must match the allocator's prediction, remote ones are
	// accepted only from the configured gateway.
	AccountID *account.ID `json:"account_id,omitzero"`

	// Deposit is the caller's attached funds, partitioned into the
	// install, namespace and residual buckets.
	Deposit funds.Funds `json:"deposit,omitzero"`
}

// Context is the transient single-slot record bridging phase 1 (Begin)
// and phase 2 (Complete) of one creation run. Written by Begin,
// consumed and deleted exactly once by Complete.
type Context struct {
	AccountID        account.ID               `json:"account_id"`
	Base             account.Base             `json:"base"`
	ControllerModule account.ModuleDescriptor `json:"controller_module"`
	ProxyModule      account.ModuleDescriptor `json:"proxy_module"`
}

// Plan is the outcome of phase 1: the resolved identifier and address
// pair, the ordered operations the host must execute, and the creation
// event to record before confirmation.
type Plan struct {
	AccountID  account.ID    `json:"account_id"`
	Base       account.Base  `json:"base"`
	Operations []Operation   `json:"-"`
	Event      CreationEvent `json:"event"`
}

// Outcome is the host-reported result of the deferred instantiation
// step, fed into phase 2.
type Outcome struct {
	Controller string `json:"controller"`
	Proxy      string `json:"proxy"`
}

// CreationEvent is emitted when a creation run is planned, before its
// outcome is confirmed. Aborting the surrounding transaction retracts
// it together with every other write of the run.
type CreationEvent struct {
	Sequence    uint32                 `json:"account_sequence"`
	Trace       string                 `json:"trace"`
	Governance  account.GovernanceKind `json:"governance"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitzero"`
	Link        string                 `json:"link,omitzero"`
	Namespace   string                 `json:"namespace,omitzero"`
	BaseAsset   string                 `json:"base_asset,omitzero"`
}

// Confirmation is emitted by phase 2 after the instantiated entities
// passed validation. RunID is the host-assigned handle of the creation
// run that produced it.
type Confirmation struct {
	RunID      string     `json:"run_id,omitzero"`
	AccountID  account.ID `json:"account"`
	Controller string     `json:"controller_address"`
	Proxy      string     `json:"proxy_address"`
}
