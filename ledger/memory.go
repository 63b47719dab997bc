package ledger

import (
	"sync"

	"github.com/pawcademy/pay-go/types"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger keeps receipts in memory. Useful for tests and for callers
// that reconcile receipts from chain events instead of persisting locally.
type MemoryLedger struct {
	mu       sync.Mutex
	receipts []types.Receipt
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Append(receipt types.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, receipt)
	return nil
}

func (m *MemoryLedger) ListRecent(n int) ([]types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return listRecent(m.receipts, n), nil
}

func (m *MemoryLedger) FindRefundable() (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findRefundable(m.receipts), nil
}

func (m *MemoryLedger) FindByID(id string) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findByID(m.receipts, id), nil
}

func (m *MemoryLedger) HasRefund(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return hasRefund(m.receipts, id), nil
}

func (m *MemoryLedger) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = nil
	return nil
}
