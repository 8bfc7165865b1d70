package solana

import "context"

// RPCClient defines Solana RPC HTTP interface.
type RPCClient interface {
	// GetMintInfo retrieves parsed SPL mint account state.
	// Returns nil if the account does not exist.
	GetMintInfo(ctx context.Context, mint string) (*MintInfo, error)

	// GetTokenSupply retrieves the total supply of an SPL token.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetTokenLargestAccounts retrieves the 20 largest token accounts of a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenHolder, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}
