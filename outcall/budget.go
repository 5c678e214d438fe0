package outcall

import (
	"fmt"
	"sync"
)

// Budget is a fixed pool of cycles that outcalls draw from.
// Charged cycles are never refunded.
type Budget struct {
	mu       sync.Mutex
	capacity uint64
	charged  uint64
}

// NewBudget creates a budget holding capacity cycles
func NewBudget(capacity uint64) *Budget {
	return &Budget{capacity: capacity}
}

// Charge deducts cycles or returns ErrBudgetExhausted
// without deducting anything
func (budget *Budget) Charge(cycles uint64) error {
	budget.mu.Lock()
	defer budget.mu.Unlock()

	if cycles > budget.capacity-budget.charged {
		return fmt.Errorf("%w: %d cycles requested, %d remaining", ErrBudgetExhausted, cycles, budget.capacity-budget.charged)
	}

	budget.charged += cycles

	return nil
}

// Remaining returns the cycles left
func (budget *Budget) Remaining() uint64 {
	budget.mu.Lock()
	defer budget.mu.Unlock()

	return budget.capacity - budget.charged
}

// Charged returns the cycles charged so far
func (budget *Budget) Charged() uint64 {
	budget.mu.Lock()
	defer budget.mu.Unlock()

	return budget.charged
}
