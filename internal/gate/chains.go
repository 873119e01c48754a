package gate

import "strconv"

// chainNames covers the networks the validation service commonly guards.
// Unknown ids fall back to a numeric label; the name is presentation only.
var chainNames = map[int64]string{
	1:        "Ethereum",
	10:       "OP Mainnet",
	56:       "BNB Smart Chain",
	137:      "Polygon",
	8453:     "Base",
	42161:    "Arbitrum One",
	43114:    "Avalanche C-Chain",
	11155111: "Sepolia",
}

// ChainName returns a display name for a chain id.
func ChainName(id int64) string {
	if name, ok := chainNames[id]; ok {
		return name
	}
	return "chain " + strconv.FormatInt(id, 10)
}
