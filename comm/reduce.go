package comm

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/divvy/types"
)

// ReduceOp combines values contributed by every rank.
type ReduceOp string

// Supported reduction operators.
const (
	OpSum  ReduceOp = "sum"
	OpProd ReduceOp = "prod"
	OpMax  ReduceOp = "max"
	OpMin  ReduceOp = "min"
	// OpAll yields 1 when every value is non-zero, else 0.
	OpAll ReduceOp = "all"
	// OpAny yields 1 when at least one value is non-zero, else 0.
	OpAny ReduceOp = "any"
)

// ParseReduceOp resolves an operator name, ignoring case.
func ParseReduceOp(name string) (ReduceOp, error) {
	op := ReduceOp(strings.ToLower(strings.TrimSpace(name)))
	if _, err := op.identity(); err != nil {
		return "", err
	}

	return op, nil
}

func (op ReduceOp) identity() (float64, error) {
	switch op {
	case OpSum, OpAny:
		return 0, nil
	case OpProd, OpAll:
		return 1, nil
	case OpMax:
		return math.Inf(-1), nil
	case OpMin:
		return math.Inf(1), nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrUnknownReduceOp, string(op))
	}
}

// fold combines values in rank order.
func (op ReduceOp) fold(values []float64) (float64, error) {
	acc, err := op.identity()
	if err != nil {
		return 0, err
	}

	for _, v := range values {
		switch op {
		case OpSum:
			acc += v
		case OpProd:
			acc *= v
		case OpMax:
			acc = math.Max(acc, v)
		case OpMin:
			acc = math.Min(acc, v)
		case OpAll:
			if v == 0 {
				acc = 0
			}
		case OpAny:
			if v != 0 {
				acc = 1
			}
		}
	}

	return acc, nil
}
