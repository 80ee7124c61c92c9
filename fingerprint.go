package divvy

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/divvy/types"
)

// Fingerprint hashes the length and items of data.
//
// Items are rendered with the %#v verb, so any value type works, including
// floats that JSON cannot encode (NaN, ±Inf). Items holding pointers hash
// their addresses and will not match across processes.
//
// Example:
//
//	fp := divvy.Fingerprint(types.SliceOf([]string{"a.nc", "b.nc"}))
func Fingerprint[T any](data types.Sequence[T]) uint64 {
	h := xxh3.New()

	var lenBuf [binary.MaxVarintLen64]byte
	n := data.Len()
	_, _ = h.Write(lenBuf[:binary.PutUvarint(lenBuf[:], uint64(n))]) //nolint:gosec // n is a length

	var item []byte
	for i := range n {
		item = fmt.Appendf(item[:0], "%#v", data.At(i))
		_, _ = h.Write(lenBuf[:binary.PutUvarint(lenBuf[:], uint64(len(item)))])
		_, _ = h.Write(item)
	}

	return h.Sum64()
}
