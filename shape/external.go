package shape

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/mkarakoc/BiFold/core"
)

// Format is the layout of an external data table. Numbers are read in
// order, ignoring line breaks and lines starting with '#'.
type Format int

// Table layouts
const (
	// FormatPairs is r f(r) r f(r) ...
	FormatPairs Format = iota
	// FormatStep is dr r0 f0 f1 ...
	FormatStep
	// FormatCountStep is n dr r0 f0 f1 ...
	FormatCountStep
	// FormatNeutronProton is r fn(r) fp(r) ...; the two columns are summed.
	FormatNeutronProton
)

// ErrBadTable is returned for tables that do not match their format.
var ErrBadTable = errors.New("malformed data table")

var formatNames = map[string]Format{
	"pairs":      FormatPairs,
	"step":       FormatStep,
	"count-step": FormatCountStep,
	"np":         FormatNeutronProton,
}

// ParseFormat maps "pairs", "step", "count-step" and "np" to a Format.
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown format %q", ErrBadTable, name)
	}
	return f, nil
}

// ReadExternal parses a data table and interpolates it linearly onto r.
// Outside the table the end values are held.
func ReadExternal(name string, rd io.Reader, r []float64, format Format, opts ...Option) (core.Func, error) {
	nums, err := readNumbers(rd)
	if err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	xs, ys, err := columns(nums, format)
	if err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	if err := core.ValidateAxis(xs); err != nil {
		return core.Func{}, fmt.Errorf("%s: %w: %w", name, ErrBadTable, err)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return core.Func{}, fmt.Errorf("%s: %w", name, err)
	}
	vals := make([]float64, len(r))
	for i, ri := range r {
		vals[i] = pl.Predict(ri)
	}
	return Sampled(name, r, vals, opts...)
}

// ReadExternalFile is ReadExternal on a file, named after its path.
func ReadExternalFile(path string, r []float64, format Format, opts ...Option) (core.Func, error) {
	fh, err := os.Open(path)
	if err != nil {
		return core.Func{}, err
	}
	defer fh.Close()
	return ReadExternal(path, fh, r, format, opts...)
}

func readNumbers(rd io.Reader) ([]float64, error) {
	var nums []float64
	sc := bufio.NewScanner(rd)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		for _, field := range strings.Fields(text) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrBadTable, line, field)
			}
			nums = append(nums, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nums, nil
}

func columns(nums []float64, format Format) (xs, ys []float64, err error) {
	switch format {
	case FormatPairs:
		if len(nums)%2 != 0 {
			return nil, nil, fmt.Errorf("%w: odd number of values for r f(r) pairs", ErrBadTable)
		}
		for i := 0; i < len(nums); i += 2 {
			xs = append(xs, nums[i])
			ys = append(ys, nums[i+1])
		}
	case FormatStep:
		if len(nums) < 3 {
			return nil, nil, fmt.Errorf("%w: need dr, r0 and samples", ErrBadTable)
		}
		xs, ys = stepped(nums[0], nums[1], nums[2:])
	case FormatCountStep:
		if len(nums) < 4 {
			return nil, nil, fmt.Errorf("%w: need n, dr, r0 and samples", ErrBadTable)
		}
		n := int(math.Round(nums[0]))
		if n != len(nums)-3 {
			return nil, nil, fmt.Errorf("%w: header announces %d samples, found %d", ErrBadTable, n, len(nums)-3)
		}
		xs, ys = stepped(nums[1], nums[2], nums[3:])
	case FormatNeutronProton:
		if len(nums)%3 != 0 {
			return nil, nil, fmt.Errorf("%w: values are not r fn fp triples", ErrBadTable)
		}
		for i := 0; i < len(nums); i += 3 {
			xs = append(xs, nums[i])
			ys = append(ys, nums[i+1]+nums[i+2])
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown format %d", ErrBadTable, format)
	}
	if len(xs) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least two points", ErrBadTable)
	}
	return xs, ys, nil
}

func stepped(dr, r0 float64, vals []float64) (xs, ys []float64) {
	xs = make([]float64, len(vals))
	for i := range vals {
		xs[i] = r0 + float64(i)*dr
	}
	return xs, vals
}
