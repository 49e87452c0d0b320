// Package selector parses episode selection expressions such as "1,3-5,8".
//
// Each comma-separated token is either a single non-negative integer or an
// inclusive "start-end" range. The expanded result is sorted and contains no
// duplicates:
//
//	nums, err := selector.Expand("1,3-5,4")
//	// nums = [1 3 4 5]
//
// Reversed ranges ("5-2"), negative numbers and empty tokens are rejected
// with ErrInvalidRange.
package selector
