package gate

import "testing"

func TestChainName(t *testing.T) {
	if got := ChainName(1); got != "Ethereum" {
		t.Fatalf("unexpected name for mainnet: %q", got)
	}
	if got := ChainName(8453); got != "Base" {
		t.Fatalf("unexpected name for base: %q", got)
	}
	if got := ChainName(999999); got != "chain 999999" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}
