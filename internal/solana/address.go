package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"memecoin-lab/internal/domain"
)

// DecodePubkey decodes a base58 address and verifies it is a 32-byte key.
func DecodePubkey(address string) ([]byte, bool) {
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != 32 {
		return nil, false
	}
	return decoded, true
}

// IsValidPubkey reports whether address decodes to a 32-byte public key.
func IsValidPubkey(address string) bool {
	_, ok := DecodePubkey(address)
	return ok
}

// IsOnCurve reports whether a 32-byte key is a valid ed25519 curve point.
// Keypair-controlled wallets are on the curve; program derived addresses
// are not.
func IsOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// ClassifyAddress determines whether an address belongs to a user wallet
// or a program.
func ClassifyAddress(address string) domain.WalletKind {
	decoded, ok := DecodePubkey(address)
	if !ok {
		return domain.WalletKindInvalid
	}
	if IsOnCurve(decoded) {
		return domain.WalletKindUser
	}
	return domain.WalletKindProgram
}
