// Package primes holds the pure predicates workers evaluate chunks with.
package primes

import "context"

// IsPrime reports whether n is prime. Values below 2 are not prime.
func IsPrime(n int64) bool {
    if n < 2 { return false }
    if n < 4 { return true }
    if n%2 == 0 || n%3 == 0 { return false }
    // i <= n/i instead of i*i <= n so large n cannot overflow.
    for i := int64(5); i <= n/i; i += 6 {
        if n%i == 0 || n%(i+2) == 0 { return false }
    }
    return true
}

// ContainsComposite reports whether any value is not prime. Values below 2
// count as composite, an empty slice does not.
func ContainsComposite(values []int64) bool {
    for _, v := range values {
        if !IsPrime(v) { return true }
    }
    return false
}

// Evaluator is the default api.Evaluator. It checks ctx every few thousand
// values so a terminated job stops early on long chunks.
type Evaluator struct{}

func (Evaluator) Evaluate(ctx context.Context, values []int64) (bool, error) {
    for i, v := range values {
        if i&4095 == 0 {
            if err := ctx.Err(); err != nil { return false, err }
        }
        if !IsPrime(v) { return true, nil }
    }
    return false, nil
}
