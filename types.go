package divvy

import (
	"github.com/arloliu/divvy/partition"
	"github.com/arloliu/divvy/types"
)

// Re-export types from the types subpackage.
//
// Internal packages depend on types rather than on the root package, which
// avoids import cycles while still offering divvy.Sequence, divvy.Logger, etc.
type (
	Sequence[T any]                 = types.Sequence[T]
	Weighted[V any, W types.Weight] = types.Weighted[V, W]
	Logger                          = types.Logger
	MetricsCollector                = types.MetricsCollector
	Kind                            = partition.Kind
)

// Re-export policy kinds.
const (
	KindDuplicate      = partition.KindDuplicate
	KindEqualLength    = partition.KindEqualLength
	KindEqualStride    = partition.KindEqualStride
	KindSortedStride   = partition.KindSortedStride
	KindWeightBalanced = partition.KindWeightBalanced
)
