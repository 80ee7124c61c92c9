package partition

import (
	"fmt"
	"strings"

	"github.com/arloliu/divvy/types"
)

// Kind names one of the built-in policies.
type Kind int

// Built-in policy kinds.
const (
	KindDuplicate Kind = iota
	KindEqualLength
	KindEqualStride
	KindSortedStride
	KindWeightBalanced
)

var kindNames = [...]string{
	KindDuplicate:      "duplicate",
	KindEqualLength:    "equal-length",
	KindEqualStride:    "equal-stride",
	KindSortedStride:   "sorted-stride",
	KindWeightBalanced: "weight-balanced",
}

// Kinds returns every built-in kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDuplicate, KindEqualLength, KindEqualStride, KindSortedStride, KindWeightBalanced}
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k]
}

// Weighted reports whether the kind needs item weights.
func (k Kind) Weighted() bool {
	return k == KindSortedStride || k == KindWeightBalanced
}

// ParseKind resolves a configuration name such as "equal-stride".
//
// Matching ignores case, and underscores are accepted in place of dashes.
//
// Returns:
//   - Kind: Resolved kind
//   - error: ErrUnknownPolicy if the name matches no built-in policy
func ParseKind(name string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for k, n := range kindNames {
		if n == normalized {
			return Kind(k), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", types.ErrUnknownPolicy, name)
}

// For returns the plain policy for kind.
//
// Returns:
//   - Policy[T]: Policy instance
//   - error: ErrWeightsRequired for SortedStride and WeightBalanced, ErrUnknownPolicy otherwise
func For[T any](kind Kind) (Policy[T], error) {
	switch kind {
	case KindDuplicate:
		return NewDuplicate[T](), nil
	case KindEqualLength:
		return NewEqualLength[T](), nil
	case KindEqualStride:
		return NewEqualStride[T](), nil
	case KindSortedStride, KindWeightBalanced:
		return nil, fmt.Errorf("%w: %s", types.ErrWeightsRequired, kind)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownPolicy, kind)
	}
}

// ForWeighted returns the weighted policy for kind.
//
// Plain kinds are lifted: they partition the (value, weight) items by position
// and return the values.
func ForWeighted[V any, W types.Weight](kind Kind) (WeightedPolicy[V, W], error) {
	switch kind {
	case KindSortedStride:
		return NewSortedStride[V, W](), nil
	case KindWeightBalanced:
		return NewWeightBalanced[V, W](), nil
	default:
		plain, err := For[types.Weighted[V, W]](kind)
		if err != nil {
			return nil, err
		}

		return Lift(plain), nil
	}
}
