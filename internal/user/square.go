package user

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidSquare = errors.New("sq must be a non-negative integer")

// CheckSquare parses raw as an area and reports its integer square root.
// One tree is suggested per unit of side length.
func CheckSquare(raw string) (*SquareCheck, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, ErrInvalidSquare
	}

	root := isqrt(n)
	return &SquareCheck{
		Sq:             n,
		Root:           root,
		PerfectSquare:  root*root == n,
		SuggestedTrees: root,
	}, nil
}

// isqrt returns floor(sqrt(n)), correcting the float estimate near 2^64.
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && (r > math.MaxUint32 || r*r > n) {
		r--
	}
	for r+1 <= math.MaxUint32 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}
