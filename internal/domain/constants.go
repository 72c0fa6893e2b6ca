package domain

// Tunable constants governing stake bounds, fee/smoothing/clamp basis
// points and identifier length limits. These are compile-time per design —
// unlike the ambient settings in internal/config, they are never read from
// the environment.
const (
	// MinStake is the smallest accepted stake, in base units (0.01 SOL).
	MinStake uint64 = 10_000_000
	// MaxStake is the largest accepted stake, in base units (100 SOL).
	MaxStake uint64 = 100_000_000_000

	// FeeBP is the platform rake on claim_payout, in basis points (2%).
	FeeBP uint64 = 200
	// SmoothBP is the AMM smoothing coefficient α, in basis points (10%).
	SmoothBP uint64 = 1000
	// ClampLowBP and ClampHighBP bound the odds the AMM will ever settle on.
	ClampLowBP  uint32 = 500
	ClampHighBP uint32 = 9500

	// FullBP is 100% in basis points; odds_a + odds_b always equals this.
	FullBP uint32 = 10000
	// HalfBP is the initial 50/50 odds split of a freshly opened market.
	HalfBP uint32 = 5000

	// MaxExternalID, MaxTitle and MaxLabel bound the length of user-supplied
	// strings accepted by open.
	MaxExternalID = 32
	MaxTitle      = 200
	MaxLabel      = 100
)
