package account

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ModuleKindAccountBase is the artifact kind required of the controller
// and proxy modules.
const ModuleKindAccountBase = "account-base"

// ModuleDescriptor is the resolved identity of a reusable code
// artifact: registry identifier and version, artifact kind, the code
// reference to instantiate from, and the expected deployed checksum.
// Resolved once from the registry and carried through the protocol so
// deferred validation needs no second resolve round-trip.
type ModuleDescriptor struct {
	ID       string        `json:"id"`
	Version  string        `json:"version"`
	Kind     string        `json:"kind"`
	CodeID   uint64        `json:"code_id"`
	Checksum hexutil.Bytes `json:"checksum"`
}

// ChecksumEqual reports whether the descriptor's checksum matches b.
func (d ModuleDescriptor) ChecksumEqual(b []byte) bool {
	if len(d.Checksum) != len(b) {
		return false
	}
	for i := range d.Checksum {
		if d.Checksum[i] != b[i] {
			return false
		}
	}
	return true
}

func (d ModuleDescriptor) String() string {
	return d.ID + "@" + d.Version
}

// WrongModuleKindError reports a resolved artifact whose kind differs
// from what the protocol step required.
type WrongModuleKindError struct {
	ModuleID string
	Kind     string
	Expected string
}

func (e *WrongModuleKindError) Error() string {
	return fmt.Sprintf("module %s has kind %q, expected %q", e.ModuleID, e.Kind, e.Expected)
}

// Metadata field limits enforced on creation requests.
const (
	MaxNameLength        = 64
	MaxDescriptionLength = 256
	MaxLinkLength        = 128
)

// ValidateName checks the account name supplied with a creation request.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("account name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("account name exceeds %d characters", MaxNameLength)
	}
	return nil
}

// ValidateDescription checks the optional account description.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("account description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateLink checks the optional account link.
func ValidateLink(link string) error {
	if link == "" {
		return nil
	}
	if len(link) > MaxLinkLength {
		return fmt.Errorf("account link exceeds %d characters", MaxLinkLength)
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return fmt.Errorf("account link must start with http:// or https://")
	}
	return nil
}
