// Package prime finds primes for sizing hash tables.
package prime

import "math/big"

// Next returns the smallest prime that is >= lowerBound. It is deterministic and
// monotonic in lowerBound.
func Next(lowerBound uint64) uint64 {
	if lowerBound <= 2 {
		return 2
	}
	n := lowerBound | 1 // no even number above 2 is prime
	for !Is(n) {
		n += 2
	}
	return n
}

// Is reports whether n is prime. ProbablyPrime(0) runs Baillie-PSW, which has no
// known counterexample and is proven exact below 2^64.
func Is(n uint64) bool {
	switch {
	case n < 2:
		return false
	case n < 4:
		return true
	case n%2 == 0:
		return false
	}
	return new(big.Int).SetUint64(n).ProbablyPrime(0)
}
