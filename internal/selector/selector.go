package selector

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for any malformed selection expression.
var ErrInvalidRange = errors.New("invalid episode range")

// Expand converts a selection expression into a sorted, de-duplicated list
// of episode numbers.
//
// Example:
//
//	Expand("1,3-5")  // [1 3 4 5]
//	Expand("2,2,1")  // [1 2]
//	Expand("5-2")    // error: reversed range
func Expand(expr string) ([]int, error) {
	set, err := Set(expr)
	if err != nil {
		return nil, err
	}

	nums := make([]int, 0, len(set))
	for n := range set {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// Set parses expr into a membership set. It accepts the same syntax as Expand.
func Set(expr string) (map[int]struct{}, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty selection", ErrInvalidRange)
	}

	set := make(map[int]struct{})
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrInvalidRange, expr)
		}

		start, end, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		for n := start; n <= end; n++ {
			set[n] = struct{}{}
		}
	}
	return set, nil
}

func parseToken(token string) (int, int, error) {
	lo, hi, isRange := strings.Cut(token, "-")
	if !isRange {
		n, err := parseNumber(token)
		return n, n, err
	}

	start, err := parseNumber(lo)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseNumber(hi)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: reversed range %q", ErrInvalidRange, token)
	}
	return start, end, nil
}

func parseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: missing number", ErrInvalidRange)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRange, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative number %q", ErrInvalidRange, s)
	}
	return n, nil
}
