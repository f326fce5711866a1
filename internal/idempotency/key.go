package idempotency

import "fmt"

const maxKeyLength = 50

// Key is a client-supplied token identifying one logical request across
// retries. Constructible only through ParseKey.
type Key struct {
	value string
}

// ParseKey validates the raw key: non-empty, at most 50 bytes.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return Key{}, fmt.Errorf("idempotency key cannot be empty")
	}
	if len(raw) > maxKeyLength {
		return Key{}, fmt.Errorf("idempotency key must be at most %d bytes", maxKeyLength)
	}
	return Key{value: raw}, nil
}

func (k Key) String() string {
	return k.value
}
