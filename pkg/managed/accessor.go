// Package managed provides a convenience façade over the lease
// container: it binds a requested secret to a typed callback invoked on
// every created and rotated event, and wraps the raw secret payload in
// a read-only accessor with typed getters.
package managed

import (
	"fmt"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// Accessor is a read-only typed view over a secret's data map. It has
// no identity beyond the map it wraps and is recreated on every lease
// or rotation event.
type Accessor struct {
	secret lease.RequestedSecret
	data   map[string]any
}

// NewAccessor wraps a secret payload.
func NewAccessor(secret lease.RequestedSecret, data map[string]any) *Accessor {
	return &Accessor{secret: secret, data: data}
}

// Secret returns the registration the data belongs to.
func (a *Accessor) Secret() lease.RequestedSecret {
	return a.secret
}

// Has reports whether key is present.
func (a *Accessor) Has(key string) bool {
	_, ok := a.data[key]
	return ok
}

// Keys returns the number of entries in the payload.
func (a *Accessor) Keys() int {
	return len(a.data)
}

// GetString returns the string under key. ok is false when the key is
// missing; a present value of another type fails with an error.
func (a *Accessor) GetString(key string) (value string, ok bool, err error) {
	raw, present := a.data[key]
	if !present {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", false, fmt.Errorf("key %q holds %T, not string", key, raw)
	}
	return s, true, nil
}

// GetStringDefault returns the string under key or def when the key is
// missing or holds another type.
func (a *Accessor) GetStringDefault(key, def string) string {
	value, ok, err := a.GetString(key)
	if err != nil || !ok {
		return def
	}
	return value
}

// GetStringElse returns the string under key or the supplier's value
// when the key is missing or holds another type. The supplier is only
// invoked when needed.
func (a *Accessor) GetStringElse(key string, supplier func() string) string {
	value, ok, err := a.GetString(key)
	if err != nil || !ok {
		return supplier()
	}
	return value
}

// GetInt returns the integer under key. Numeric JSON payloads arrive as
// float64 or json.Number-style strings depending on the client, so all
// integral representations are accepted. ok is false when the key is
// missing; a present non-integral value fails with an error.
func (a *Accessor) GetInt(key string) (value int, ok bool, err error) {
	v, ok, err := a.GetInt64(key)
	return int(v), ok, err
}

// GetIntDefault returns the integer under key or def when the key is
// missing or not integral.
func (a *Accessor) GetIntDefault(key string, def int) int {
	value, ok, err := a.GetInt(key)
	if err != nil || !ok {
		return def
	}
	return value
}

// GetInt64 returns the 64-bit integer under key. See GetInt.
func (a *Accessor) GetInt64(key string) (value int64, ok bool, err error) {
	raw, present := a.data[key]
	if !present {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case float64:
		asInt := int64(v)
		if float64(asInt) != v {
			return 0, false, fmt.Errorf("key %q holds non-integral number %v", key, v)
		}
		return asInt, true, nil
	default:
		if n, isNumber := raw.(interface{ Int64() (int64, error) }); isNumber {
			parsed, parseErr := n.Int64()
			if parseErr != nil {
				return 0, false, fmt.Errorf("key %q: %w", key, parseErr)
			}
			return parsed, true, nil
		}
		return 0, false, fmt.Errorf("key %q holds %T, not integer", key, raw)
	}
}

// GetInt64Default returns the 64-bit integer under key or def when the
// key is missing or not integral.
func (a *Accessor) GetInt64Default(key string, def int64) int64 {
	value, ok, err := a.GetInt64(key)
	if err != nil || !ok {
		return def
	}
	return value
}

// Raw returns a copy of the underlying data map.
func (a *Accessor) Raw() map[string]any {
	copied := make(map[string]any, len(a.data))
	for k, v := range a.data {
		copied[k] = v
	}
	return copied
}

// Mapped is the result of transforming an accessor with As. It carries
// the derived value and lets callers chain a consumer.
type Mapped[T any] struct {
	value T
}

// Get returns the derived value.
func (m Mapped[T]) Get() T {
	return m.value
}

// ApplyTo hands the derived value to consumer and returns the chain.
func (m Mapped[T]) ApplyTo(consumer func(T)) Mapped[T] {
	consumer(m.value)
	return m
}

// As applies a pure mapping from the raw data map to a typed value, for
// example extracting a username/password pair.
func As[T any](a *Accessor, mapper func(data map[string]any) T) Mapped[T] {
	return Mapped[T]{value: mapper(a.data)}
}
