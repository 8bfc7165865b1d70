package domain

// WrappedSOLMint is the mint address of wrapped SOL, the default quote token.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Burn wallet addresses. Supply held by these accounts counts as burnt.
var BurnWallets = map[string]bool{
	"1nc1nerator11111111111111111111111111111111": true,
	"11111111111111111111111111111111":            true,
}

// Trade side constants.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// PlatformPumpFun is the launch platform used for latest-token discovery.
const PlatformPumpFun = "pump.fun"

// SolanaMemeCategory is the CoinGecko category name resolved at runtime.
const SolanaMemeCategory = "solana meme"
