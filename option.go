package pay

import (
	"time"

	"github.com/pawcademy/pay-go/clients"
	"github.com/pawcademy/pay-go/ledger"
	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/metrics"
	"github.com/pawcademy/pay-go/settlement"
	"github.com/pawcademy/pay-go/wallet"
)

type Option func(*Pay)

func WithLogger(l logger.Logger) Option {
	return func(p *Pay) {
		p.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(p *Pay) {
		p.metrics = r
	}
}

// WithTimeout overrides the configured confirmation timeout used when
// waiting for transactions to be mined.
func WithTimeout(t time.Duration) Option {
	return func(p *Pay) {
		p.timeout = t
	}
}

// WithProvider injects the wallet provider. Without it, the configured
// RPC endpoint is dialed.
func WithProvider(provider wallet.Provider) Option {
	return func(p *Pay) {
		p.provider = provider
	}
}

// WithLedger replaces the default file-backed receipt ledger, e.g. with a
// remote indexed store for server-side reconciliation.
func WithLedger(l ledger.Ledger) Option {
	return func(p *Pay) {
		p.ledger = l
	}
}

// WithChainReader injects the read-side chain client, mainly for tests.
func WithChainReader(r clients.ChainReader) Option {
	return func(p *Pay) {
		p.reader = r
	}
}

// WithFlowObserver registers a callback for flow state transitions so a
// UI can render progress.
func WithFlowObserver(fn settlement.FlowObserver) Option {
	return func(p *Pay) {
		p.observer = fn
	}
}
