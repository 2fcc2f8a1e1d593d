package funds

import "fmt"

// Buckets are the named partitions of a creation deposit. The invariant
// Install + Namespace + Residual == original deposit holds whenever
// Partition succeeds.
type Buckets struct {
	Install   Funds `json:"install"`
	Namespace Funds `json:"namespace"`
	Residual  Funds `json:"residual"`
}

// FeeMismatchError reports a deposit that does not cover the required
// fees, carrying both multisets for the caller.
type FeeMismatchError struct {
	Expected Funds
	Sent     Funds

	cause error
}

func (e *FeeMismatchError) Error() string {
	return fmt.Sprintf("invalid fee payment sent. Expected %s, sent %s", e.Expected, e.Sent)
}

func (e *FeeMismatchError) Unwrap() error {
	return e.cause
}

// Partition splits deposit into the install and namespace fee buckets
// plus the residual forwarded onward. Subtraction is checked per
// denomination; any shortfall fails the whole partition with a
// FeeMismatchError naming expected versus sent. The inputs are never
// mutated, so a failed partition has no visible effect.
func Partition(deposit, install, namespace Funds) (Buckets, error) {
	remaining := deposit.Clone()

	var err error
	for _, required := range []Funds{install, namespace} {
		remaining, err = remaining.Sub(required)
		if err != nil {
			return Buckets{}, &FeeMismatchError{
				Expected: install.Add(namespace),
				Sent:     deposit.Clone(),
				cause:    err,
			}
		}
	}

	return Buckets{
		Install:   install.Clone(),
		Namespace: namespace.Clone(),
		Residual:  remaining,
	}, nil
}
