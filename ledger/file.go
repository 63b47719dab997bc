package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pawcademy/pay-go/types"
)

var _ Ledger = (*FileLedger)(nil)

// FileLedger persists receipts as a JSON document under the fixed
// namespace. A missing or corrupt store is treated as empty: reads never
// fail because of bad on-disk state.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

// NewFileLedger opens (or lazily creates) the store at path. An empty path
// resolves to the default location under the user home directory.
func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve ledger location: %w", err)
		}
		path = filepath.Join(home, ".pawcademy", Namespace+".json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create ledger directory: %w", err)
	}
	return &FileLedger{path: path}, nil
}

// Append implements Ledger.
func (f *FileLedger) Append(receipt types.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	receipts := f.load()
	receipts = append(receipts, receipt)
	return f.store(receipts)
}

// ListRecent implements Ledger. n <= 0 returns everything, newest first.
func (f *FileLedger) ListRecent(n int) ([]types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return listRecent(f.load(), n), nil
}

// FindRefundable implements Ledger: the most recent micropayment receipt
// without a refund record sharing its id, or nil.
func (f *FileLedger) FindRefundable() (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return findRefundable(f.load()), nil
}

// FindByID implements Ledger.
func (f *FileLedger) FindByID(id string) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return findByID(f.load(), id), nil
}

// HasRefund implements Ledger.
func (f *FileLedger) HasRefund(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return hasRefund(f.load(), id), nil
}

// Clear implements Ledger.
func (f *FileLedger) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type ledgerDocument struct {
	Namespace string          `json:"namespace"`
	Receipts  []types.Receipt `json:"receipts"`
}

func (f *FileLedger) load() []types.Receipt {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil
	}
	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.Receipts
}

func (f *FileLedger) store(receipts []types.Receipt) error {
	data, err := json.MarshalIndent(ledgerDocument{
		Namespace: Namespace,
		Receipts:  receipts,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
