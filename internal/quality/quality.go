// Package quality runs quality-control rules over numeric measurement
// columns before they reach an analysis.
package quality

import (
	"fmt"
	"math"
	"strings"

	"statsmed/internal/errors"
)

// Table holds named numeric columns of equal length. NaN marks a missing
// value.
type Table map[string][]float64

// Kind names a rule type.
type Kind string

const (
	KindMissing Kind = "missing"
	KindRange   Kind = "range"
)

// maxListed caps the offending rows quoted in a message.
const maxListed = 5

// Rule is one quality-control check.
type Rule struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Columns []string `json:"columns"`
	Min     *float64 `json:"min,omitempty"` // inclusive
	Max     *float64 `json:"max,omitempty"` // inclusive
}

// Result is the outcome of one rule.
type Result struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Passed  bool   `json:"passed"`
	Rows    int    `json:"rows"`
	Failing []int  `json:"failing,omitempty"`
	Message string `json:"message"`
}

// Run evaluates rules in order. Configuration problems abort the run with
// a ParameterError; data problems are reported as failed results.
func Run(table Table, rules []Rule) ([]Result, error) {
	const stage = "quality.run"
	rows, err := rowCount(table)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rules))
	for _, rule := range rules {
		if len(rule.Columns) == 0 {
			return nil, errors.Parameter(stage, "no columns specified", errors.Inputs{"rule": rule.Name})
		}
		for _, col := range rule.Columns {
			if _, ok := table[col]; !ok {
				return nil, errors.Parameter(stage, "unknown column", errors.Inputs{"rule": rule.Name, "column": col})
			}
		}

		var result Result
		switch rule.Kind {
		case KindMissing:
			result = checkMissing(table, rule, rows)
		case KindRange:
			if rule.Min == nil && rule.Max == nil {
				return nil, errors.Parameter(stage, "specify at least min or max", errors.Inputs{"rule": rule.Name})
			}
			result = checkRange(table, rule, rows)
		default:
			return nil, errors.Parameter(stage, "unknown rule kind", errors.Inputs{"rule": rule.Name, "kind": string(rule.Kind)})
		}
		results = append(results, result)
	}
	return results, nil
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// checkMissing counts rows with a missing value in any of the rule's
// columns.
func checkMissing(table Table, rule Rule, rows int) Result {
	result := Result{Name: rule.Name, Kind: rule.Kind, Rows: rows}
	for i := 0; i < rows; i++ {
		for _, col := range rule.Columns {
			if math.IsNaN(table[col][i]) {
				result.Failing = append(result.Failing, i)
				break
			}
		}
	}
	cols := strings.Join(rule.Columns, ", ")
	if len(result.Failing) == 0 {
		result.Passed = true
		result.Message = fmt.Sprintf("All %d rows have no missing values in [%s]", rows, cols)
	} else {
		result.Message = fmt.Sprintf("%d of %d rows have missing values in [%s]", len(result.Failing), rows, cols)
	}
	return result
}

// checkRange flags present values outside [Min, Max]. Missing values are
// left to the missing rule.
func checkRange(table Table, rule Rule, rows int) Result {
	result := Result{Name: rule.Name, Kind: rule.Kind, Rows: rows}
	var quoted []string
	for _, col := range rule.Columns {
		for i, v := range table[col] {
			if math.IsNaN(v) {
				continue
			}
			if (rule.Min != nil && v < *rule.Min) || (rule.Max != nil && v > *rule.Max) {
				result.Failing = append(result.Failing, i)
				if len(quoted) < maxListed {
					quoted = append(quoted, fmt.Sprintf("%s[%d]=%g", col, i, v))
				}
			}
		}
	}
	cols := strings.Join(rule.Columns, ", ")
	if len(result.Failing) == 0 {
		result.Passed = true
		result.Message = fmt.Sprintf("All values in [%s] within range", cols)
		return result
	}
	more := ""
	if len(result.Failing) > maxListed {
		more = ", ..."
	}
	result.Message = fmt.Sprintf("%d value(s) out of range: %s%s", len(result.Failing), strings.Join(quoted, ", "), more)
	return result
}

func rowCount(table Table) (int, error) {
	rows := -1
	for name, col := range table {
		if rows == -1 {
			rows = len(col)
			continue
		}
		if len(col) != rows {
			return 0, errors.Parameter("quality.run", "columns differ in length", errors.Inputs{"column": name, "rows": len(col), "expected": rows})
		}
	}
	if rows < 0 {
		rows = 0
	}
	return rows, nil
}
