// Package pay is the agentic payment settlement client: it turns a
// purchase intent into a confirmed, reconciled on-chain transaction, and
// degrades to simulated settlement when no contract is configured.
package pay

import (
	"context"
	"time"

	"github.com/pawcademy/pay-go/clients"
	"github.com/pawcademy/pay-go/ledger"
	"github.com/pawcademy/pay-go/logger"
	"github.com/pawcademy/pay-go/metrics"
	"github.com/pawcademy/pay-go/settlement"
	"github.com/pawcademy/pay-go/types"
	"github.com/pawcademy/pay-go/utils"
	"github.com/pawcademy/pay-go/wallet"
)

// Pay is the main entry point. Construct it once; the settlement mode is
// resolved here and never re-checked per call.
type Pay struct {
	config       *types.Config
	chain        types.ChainDescriptor
	mode         settlement.Mode
	orchestrator *settlement.Orchestrator
	gateway      *wallet.Gateway
	reader       clients.ChainReader
	ledger       ledger.Ledger
	logger       logger.Logger
	metrics      metrics.Recorder
	provider     wallet.Provider
	observer     settlement.FlowObserver
	timeout      time.Duration
}

// New creates a Pay instance from static configuration.
func New(cfg *types.Config, opts ...Option) (*Pay, error) {
	if err := utils.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	chain, _ := types.DescriptorFor(cfg.Network)

	p := &Pay{
		config:  cfg,
		chain:   chain,
		mode:    settlement.ResolveMode(cfg),
		timeout: cfg.ConfirmTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		if cfg.LogLevel != "" {
			p.logger = logger.NewZapLogger(cfg.LogLevel)
		} else {
			p.logger = logger.NoopLogger{}
		}
	}
	if p.metrics == nil {
		if cfg.EnableMetrics {
			p.metrics = metrics.NewPrometheusRecorder()
		} else {
			p.metrics = metrics.NoopRecorder{}
		}
	}
	if p.ledger == nil {
		fl, err := ledger.NewFileLedger(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		p.ledger = fl
	}
	if p.provider == nil && cfg.RPCUrl != "" {
		provider, err := wallet.DialProvider(cfg.RPCUrl)
		if err != nil {
			return nil, err
		}
		p.provider = provider
	}

	p.gateway = wallet.NewGateway(p.provider, chain, p.logger)

	var settler settlement.Settler
	if p.mode == settlement.ModeOnChain {
		rpcURL := cfg.RPCUrl
		if rpcURL == "" {
			rpcURL = chain.RPCURL
		}
		if p.reader == nil {
			reader, err := clients.NewEVMClient(cfg.Network, rpcURL, p.timeout, cfg.PollInterval, p.logger)
			if err != nil {
				return nil, err
			}
			p.reader = reader
		}
		onchain, err := settlement.NewOnChainSettler(
			p.gateway, p.reader, cfg.ContractAddress, cfg.Treasury, chain, p.logger,
		)
		if err != nil {
			return nil, err
		}
		settler = onchain
	} else {
		settler = settlement.NewSimulatedSettler(p.logger)
	}

	p.orchestrator = settlement.NewOrchestrator(
		p.mode, settler, p.gateway, p.ledger, chain, p.logger, p.metrics,
	)
	if p.observer != nil {
		p.orchestrator.SetObserver(p.observer)
	}

	p.logger.Info("payment client ready", map[string]any{
		"network": chain.Network.String(),
		"mode":    p.mode.String(),
	})
	return p, nil
}

// Purchase runs the full flow for a catalog plan and returns its receipt.
func (p *Pay) Purchase(ctx context.Context, planID string) (*types.Receipt, error) {
	plan, ok := p.config.PlanByID(planID)
	if !ok {
		return nil, &types.PayError{
			Code:    types.ErrUnknownPlan,
			Message: "unknown plan: " + planID,
		}
	}
	return p.orchestrator.Purchase(ctx, plan)
}

// Refund reverses the most recent micropayment that has not been refunded.
func (p *Pay) Refund(ctx context.Context) (*types.Receipt, error) {
	return p.orchestrator.Refund(ctx)
}

// RefundReceipt reverses a specific receipt id.
func (p *Pay) RefundReceipt(ctx context.Context, id string) (*types.Receipt, error) {
	return p.orchestrator.RefundReceipt(ctx, id)
}

// Receipts lists the n most recent ledger records, newest first. n <= 0
// returns everything.
func (p *Pay) Receipts(n int) ([]types.Receipt, error) {
	return p.ledger.ListRecent(n)
}

// Refundable returns the receipt Refund would target, or nil.
func (p *Pay) Refundable() (*types.Receipt, error) {
	return p.ledger.FindRefundable()
}

// Session re-derives the current wallet session from the provider.
func (p *Pay) Session(ctx context.Context) (*types.ChainSession, error) {
	return p.gateway.Session(ctx)
}

// Mode reports the settlement mode resolved at construction.
func (p *Pay) Mode() settlement.Mode {
	return p.mode
}

// Chain exposes the static descriptor of the target network.
func (p *Pay) Chain() types.ChainDescriptor {
	return p.chain
}

// Close releases the chain client connection.
func (p *Pay) Close() {
	if p.reader != nil {
		p.reader.Close()
	}
}
