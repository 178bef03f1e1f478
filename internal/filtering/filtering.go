// Package filtering narrows a ranking set for display. Filters operate on
// copies of the row list and never touch the cached snapshot; the cache
// invariant is that only disposition edits mutate it.
package filtering

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/ranking"
)

// Filter represents a single filtering step applied to ranked candidates.
type Filter interface {
	Name() string
	Apply(set *ranking.Set) *ranking.Set
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the resulting
// view. The input set is never modified.
func Run(logger *zap.Logger, steps []Filter, set *ranking.Set) *ranking.Set {
	for _, step := range steps {
		next := step.Apply(set)

		if logger != nil {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", set.Len()),
				zap.Int("dropped", set.Len()-next.Len()),
				zap.Int("left", next.Len()),
			)
		}

		set = next
	}

	return set
}

// keep builds a filtered view holding the rows the predicate accepts. Row
// structs are shared with the input; filters must not write to them.
func keep(set *ranking.Set, pred func(*ranking.Result) bool) *ranking.Set {
	out := &ranking.Set{Items: make([]*ranking.Result, 0, set.Len())}
	for _, row := range set.Items {
		if pred(row) {
			out.Items = append(out.Items, row)
		}
	}
	return out
}

type statusFilter struct {
	statuses []ranking.Status
}

// NewByStatus creates a filter that keeps only candidates in the listed
// dispositions. With no statuses the filter keeps everything.
func NewByStatus(statuses ...ranking.Status) Filter {
	return &statusFilter{statuses: statuses}
}

func (f *statusFilter) Name() string { return "by_status" }

func (f *statusFilter) Apply(set *ranking.Set) *ranking.Set {
	if len(f.statuses) == 0 {
		return set
	}

	return keep(set, func(r *ranking.Result) bool {
		for _, s := range f.statuses {
			if r.Status == s {
				return true
			}
		}
		return false
	})
}

type minScoreFilter struct {
	min float64
}

// NewMinScore creates a filter that drops candidates whose overall score
// falls below min.
func NewMinScore(min float64) Filter {
	return &minScoreFilter{min: min}
}

func (f *minScoreFilter) Name() string {
	return fmt.Sprintf("min_score(%.2f)", f.min)
}

func (f *minScoreFilter) Apply(set *ranking.Set) *ranking.Set {
	if f.min <= 0 {
		return set
	}

	return keep(set, func(r *ranking.Result) bool {
		return r.OverallScore >= f.min
	})
}

type budgetFitFilter struct {
	buckets []string
}

// NewBudgetFit creates a filter that keeps only candidates in the listed
// budget-fit buckets, matched case-insensitively.
func NewBudgetFit(buckets ...string) Filter {
	return &budgetFitFilter{buckets: buckets}
}

func (f *budgetFitFilter) Name() string { return "budget_fit" }

func (f *budgetFitFilter) Apply(set *ranking.Set) *ranking.Set {
	if len(f.buckets) == 0 {
		return set
	}

	return keep(set, func(r *ranking.Result) bool {
		for _, b := range f.buckets {
			if strings.EqualFold(strings.TrimSpace(b), r.BudgetFit) {
				return true
			}
		}
		return false
	})
}
