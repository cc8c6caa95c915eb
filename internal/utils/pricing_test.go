package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialPriceCents(t *testing.T) {
	// 100.00/day for 3 days = 300.00, tax 15.00, deposit 50.00
	total := InitialPriceCents(10000, 3, 5000)
	assert.Equal(t, int64(36500), total)
}

func TestInitialPriceCentsNoDeposit(t *testing.T) {
	total := InitialPriceCents(2500, 4, 0)
	assert.Equal(t, int64(10500), total)
}

func TestRescheduleDeltaCents(t *testing.T) {
	// Extending 3 -> 5 days at 100.00/day: 200.00 plus 10.00 tax
	delta := RescheduleDeltaCents(10000, 3, 5)
	assert.Equal(t, int64(21000), delta)
}

func TestRescheduleDeltaCentsRefund(t *testing.T) {
	// Reducing 5 -> 3 days mirrors the extension charge exactly
	delta := RescheduleDeltaCents(10000, 5, 3)
	assert.Equal(t, int64(-21000), delta)
}

func TestRescheduleDeltaCentsSameDays(t *testing.T) {
	delta := RescheduleDeltaCents(10000, 3, 3)
	assert.Equal(t, int64(0), delta)
}

func TestRescheduleDeltaCentsNeverTouchesDeposit(t *testing.T) {
	// The deposit is charged once at confirmation; deltas are day-count only
	initial := InitialPriceCents(10000, 3, 5000)
	extended := InitialPriceCents(10000, 5, 5000)
	delta := RescheduleDeltaCents(10000, 3, 5)
	assert.Equal(t, extended-initial, delta)
}
