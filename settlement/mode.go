// Package settlement drives the end-to-end purchase flow: wallet
// negotiation, transaction submission, confirmation, event decoding, and
// the receipt commit.
package settlement

import (
	"strings"

	"github.com/pawcademy/pay-go/types"
)

// Mode selects how the orchestrator settles payments. It is resolved once
// at startup from static configuration, never per call.
type Mode string

const (
	// ModeOnChain submits real contract calls and decodes their events.
	ModeOnChain Mode = "onchain"

	// ModeSimulated replaces submission and confirmation with fixed
	// delays and synthesizes receipt ids locally. Selected when no
	// contract address is configured.
	ModeSimulated Mode = "simulated"
)

func (m Mode) String() string {
	return string(m)
}

// ResolveMode decides the settlement mode from configuration.
func ResolveMode(cfg *types.Config) Mode {
	if strings.TrimSpace(cfg.ContractAddress) == "" {
		return ModeSimulated
	}
	return ModeOnChain
}
