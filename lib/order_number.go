package lib

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOrderNumber generates an order number in the format: AD-XXXXXX
// where XXXXXX is a random 6-character alphanumeric string. Uniqueness is
// enforced by the orders.order_number constraint, not here. The package-level
// rand/v2 source is concurrency-safe, so concurrent bursts draw independent
// values instead of sharing a same-nanosecond seed.
func GenerateOrderNumber() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 6

	randomPart := make([]byte, length)
	for i := range randomPart {
		randomPart[i] = chars[rand.IntN(len(chars))]
	}

	return fmt.Sprintf("AD-%s", string(randomPart))
}
