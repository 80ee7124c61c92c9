package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/arloliu/divvy/types"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// ReadItems parses one item per line.
//
// Each line is "value" or "value,weight"; the weight is split off at the
// last comma. Surrounding whitespace is trimmed, and blank lines and lines
// starting with '#' are skipped. Either every item has a weight or none does.
//
// Parameters:
//   - r: Input text
//
// Returns:
//   - Items: Parsed input (Weights nil when no line has a weight)
//   - error: types.ErrInvalidWeight with the line number for a malformed,
//     NaN, or missing weight; or the read error
//
// Example:
//
//	items, err := source.ReadItems(strings.NewReader("a.nc,120\nb.nc,80\n"))
func ReadItems(r io.Reader) (Items, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		items    Items
		weighted *bool
	)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		value, weightText, hasWeight := cutLast(line, ",")
		if weighted == nil {
			weighted = &hasWeight
		} else if *weighted != hasWeight {
			return Items{}, fmt.Errorf("%w: line %d: every item or none must carry a weight", types.ErrInvalidWeight, lineNo)
		}

		items.Values = append(items.Values, strings.TrimSpace(value))
		if !hasWeight {
			continue
		}

		w, err := strconv.ParseFloat(strings.TrimSpace(weightText), 64)
		if err != nil {
			return Items{}, fmt.Errorf("%w: line %d: %q", types.ErrInvalidWeight, lineNo, weightText)
		}
		if math.IsNaN(w) {
			return Items{}, fmt.Errorf("%w: line %d: NaN", types.ErrInvalidWeight, lineNo)
		}
		items.Weights = append(items.Weights, w)
	}
	if err := scanner.Err(); err != nil {
		return Items{}, fmt.Errorf("failed to read items: %w", err)
	}

	if items.Values == nil {
		items.Values = []string{}
	}

	return items, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}

	return s, "", false
}

// File is a source backed by a text file in the ReadItems format.
//
// The file is read on every call to Items.
type File struct {
	Path string
}

var _ Source = File{}

// Items reads and parses the file.
func (f File) Items(_ context.Context) (Items, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return Items{}, fmt.Errorf("failed to open items file: %w", err)
	}
	defer fh.Close()

	items, err := ReadItems(fh)
	if err != nil {
		return Items{}, fmt.Errorf("%s: %w", f.Path, err)
	}

	return items, nil
}
