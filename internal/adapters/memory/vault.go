package memory

import (
	"context"
	"sync"
)

// PaymentVault is an in-process stand-in for the external value
// transfer capability. Outbound ledger payments credit per-address
// balances that tests and the gateway can inspect.
type PaymentVault struct {
	balances map[string]uint64
	mu       sync.RWMutex
}

// NewPaymentVault creates an empty payment vault
func NewPaymentVault() *PaymentVault {
	return &PaymentVault{
		balances: make(map[string]uint64),
	}
}

// Send transfers funds from the ledger to a recipient address
func (v *PaymentVault) Send(ctx context.Context, to string, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[to] += amount
	return nil
}

// BalanceOf returns the total credited to an address.
func (v *PaymentVault) BalanceOf(address string) uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[address]
}
