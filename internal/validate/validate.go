// Package validate runs integrity checks over a requirement catalog.
package validate

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/phobologic/reqtrace/internal/model"
)

// DuplicateRequirementError reports the most frequent repeated ID.
type DuplicateRequirementError struct {
	ID    string
	Count int
}

func (e *DuplicateRequirementError) Error() string {
	return fmt.Sprintf("duplicate requirement IDs: %q is found %d times", e.ID, e.Count)
}

// DetectDuplicates fails if any requirement ID occurs more than once. The
// error names the most frequent ID; ties go to the ID seen first.
func DetectDuplicates(reqs []model.Requirement) error {
	counts := make(map[string]int, len(reqs))
	var order []string
	for _, r := range reqs {
		if counts[r.ID] == 0 {
			order = append(order, r.ID)
		}
		counts[r.ID]++
	}

	var worst string
	for _, id := range order {
		if counts[id] > counts[worst] {
			worst = id
		}
	}
	if counts[worst] > 1 {
		return &DuplicateRequirementError{ID: worst, Count: counts[worst]}
	}
	return nil
}

// Gap describes an ID family whose numbers are not exactly 1..n.
type Gap struct {
	Prefix  string
	Numbers []int // sorted numbers actually found
}

// DescribeGaps groups requirement numbers by ID prefix and returns every
// prefix whose sorted numbers differ from 1..count, ordered by prefix.
// Gaps are advisory; the only error is a malformed ID.
func DescribeGaps(reqs []model.Requirement) ([]Gap, error) {
	numbers := make(map[string][]int)
	for _, r := range reqs {
		prefix, n, err := r.IDParts()
		if err != nil {
			return nil, err
		}
		numbers[prefix] = append(numbers[prefix], n)
	}

	var gaps []Gap
	for prefix, found := range numbers {
		slices.Sort(found)
		if !isSequence(found) {
			gaps = append(gaps, Gap{Prefix: prefix, Numbers: found})
		}
	}
	sort.Slice(gaps, func(i, j int) bool {
		return gaps[i].Prefix < gaps[j].Prefix
	})
	return gaps, nil
}

func isSequence(sorted []int) bool {
	for i, n := range sorted {
		if n != i+1 {
			return false
		}
	}
	return true
}

// LogGaps writes one warning per gap.
func LogGaps(logger *slog.Logger, gaps []Gap) {
	for _, g := range gaps {
		logger.Warn("unusual sequence numbers", "prefix", g.Prefix, "numbers", fmt.Sprint(g.Numbers))
	}
}
