// Package address predicts the deterministic addresses of account
// sub-entities before they are instantiated. Derivation is
// content-addressed and independent of instantiation data, so the same
// (origin, checksum, salt) triple always yields the same address and
// anyone can recompute it off-chain.
package address

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/chainsafe/account-factory/pkg/account"
)

// ChecksumSize is the required code-artifact checksum length.
const ChecksumSize = 32

// SaltSize is the instantiation salt length.
const SaltSize = 32

const saltPurpose = "account-instantiate-salt"

// Salt derives the instantiation salt for an account identifier.
// Purely a function of the canonical identifier text: the same
// identifier always yields the same salt.
func Salt(id account.ID) ([SaltSize]byte, error) {
	var salt [SaltSize]byte
	r := hkdf.New(sha256.New, []byte(id.String()), nil, []byte(saltPurpose))
	if _, err := io.ReadFull(r, salt[:]); err != nil {
		return salt, fmt.Errorf("derive instantiate salt: %w", err)
	}
	return salt, nil
}

// Predict computes the address a deterministic instantiation of the
// artifact with the given checksum will produce when performed by
// origin with the given salt.
func Predict(origin common.Address, checksum []byte, salt [SaltSize]byte) (common.Address, error) {
	if len(checksum) != ChecksumSize {
		return common.Address{}, fmt.Errorf("code checksum must be %d bytes, got %d", ChecksumSize, len(checksum))
	}
	return crypto.CreateAddress2(origin, salt, checksum), nil
}
