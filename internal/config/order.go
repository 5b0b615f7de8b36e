package config

import (
	"fmt"
	"strings"
)

// TxOrder selects how the mempool sorts pending transactions. The value is
// carried through the configuration as an opaque selector; the ordering
// algorithm itself lives in the mempool.
type TxOrder string

const (
	// OrderFees sorts pending transactions by effective tip, highest first.
	OrderFees TxOrder = "fees"

	// OrderFIFO keeps pending transactions in arrival order.
	OrderFIFO TxOrder = "fifo"
)

// ParseTxOrder converts a user-supplied name into a TxOrder.
func ParseTxOrder(s string) (TxOrder, error) {
	switch o := TxOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderFees, OrderFIFO:
		return o, nil
	default:
		return "", fmt.Errorf("unknown transaction order %q, must be one of: fees, fifo", s)
	}
}
