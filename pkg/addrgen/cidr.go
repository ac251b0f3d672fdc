// Package addrgen generates network addresses for sandboxes.
package addrgen

import (
	"errors"
	"fmt"
	"math/big"
	"net/netip"
	"sync"
	"sync/atomic"
)

// ErrOverflow is returned if a network lies outside of the
// address space.
var ErrOverflow = errors.New("network exceeds address space")

// CIDRGenerator hands out adjacent networks without overlap. It
// is safe for concurrent use.
type CIDRGenerator struct {
	counter atomic.Uint64
}

var (
	defaultGenerator     *CIDRGenerator
	defaultGeneratorOnce sync.Once
)

// Default returns the generator shared by the whole process.
func Default() *CIDRGenerator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator = &CIDRGenerator{}
	})
	return defaultGenerator
}

// Next returns the next network of the same size as start. The
// first call returns start itself, the second call the network
// directly after it and so on.
func (g *CIDRGenerator) Next(start string) (netip.Prefix, error) {
	// Reserve the index first so concurrent callers never share one.
	index := g.counter.Add(1) - 1

	return Nth(start, index)
}

// Nth returns the network that is n networks of the size of
// start after start.
func Nth(start string, n uint64) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(start)
	if err != nil {
		return netip.Prefix{}, err
	}
	prefix = prefix.Masked()

	addr := prefix.Addr()
	hostBits := addr.BitLen() - prefix.Bits()

	raw := addr.AsSlice()
	value := new(big.Int).SetBytes(raw)
	offset := new(big.Int).Lsh(new(big.Int).SetUint64(n), uint(hostBits))
	value.Add(value, offset)
	if value.BitLen() > addr.BitLen() {
		return netip.Prefix{}, ErrOverflow
	}

	next, _ := netip.AddrFromSlice(value.FillBytes(make([]byte, len(raw))))
	return next.Prefix(prefix.Bits())
}

// NextCIDR returns the next network of the shared generator
// in CIDR notation.
func NextCIDR(start string) (string, error) {
	prefix, err := Default().Next(start)
	if err != nil {
		return "", fmt.Errorf("failed to generate CIDR from %s: %w", start, err)
	}
	return prefix.String(), nil
}
