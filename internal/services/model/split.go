package model

import (
    "fmt"
    "math"
    "math/rand"
)

// SplitStrategy picks how rows are divided into train and test partitions.
type SplitStrategy string

const (
    SplitRandom        SplitStrategy = "random"
    SplitChronological SplitStrategy = "chronological"
)

// testSize mirrors the usual ceil(n * fraction) rule while keeping at least
// one row on each side when n >= 2.
func testSize(n int, fraction float64) int {
    if n < 2 || fraction <= 0 {
        return 0
    }
    k := int(math.Ceil(float64(n) * fraction))
    if k < 1 {
        k = 1
    }
    if k > n-1 {
        k = n - 1
    }
    return k
}

// Split returns train and test row indices. The random strategy is fully
// determined by seed; the chronological one keeps the last rows for testing.
func Split(n int, fraction float64, seed int64, s SplitStrategy) (train, test []int, err error) {
    if fraction < 0 || fraction >= 1 {
        return nil, nil, fmt.Errorf("split: test fraction %v out of range [0,1)", fraction)
    }
    k := testSize(n, fraction)
    switch s {
    case SplitRandom, "":
        perm := rand.New(rand.NewSource(seed)).Perm(n)
        return perm[k:], perm[:k], nil
    case SplitChronological:
        idx := make([]int, n)
        for i := range idx {
            idx[i] = i
        }
        return idx[:n-k], idx[n-k:], nil
    default:
        return nil, nil, fmt.Errorf("split: unknown strategy %q", s)
    }
}
