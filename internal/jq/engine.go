// Package jq provides JQ-based ad-hoc querying over attachment records, for
// questions the structured filters cannot express (group by author, extract
// URL lists, count by filetype).
package jq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/haystackfs/haystack/pkg/types"
)

// Engine executes JQ expressions against record metadata.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result contains the outcome of a JQ query over a record set.
type Result struct {
	Values   []any    `json:"values"`           // extracted values
	Errors   []string `json:"errors,omitempty"` // per-record errors (type mismatch etc.)
	RawCount int      `json:"raw_count"`        // value count before deduplication
}

// QueryRecords runs expression against each record's JSON form, collecting
// the produced values. Per-record evaluation errors are reported but do not
// abort the query; duplicate values are dropped when deduplicate is set.
func (e *Engine) QueryRecords(recs []types.Record, expression string, deduplicate bool, maxResults int) (*Result, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	result := &Result{
		Values: make([]any, 0),
		Errors: make([]string, 0),
	}
	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)

	for i := range recs {
		if maxResults > 0 && len(result.Values) >= maxResults {
			break
		}

		label := recs[i].Filename
		if label == "" {
			label = fmt.Sprintf("record[%d]", i)
		}

		// Round-trip through JSON so the expression sees plain maps, the
		// same shape the search results serialize to.
		raw, err := json.Marshal(&recs[i])
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", recs[i].ID, err)
		}
		var input any
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", recs[i].ID, err)
		}

		iter := code.Run(input)
		for {
			if maxResults > 0 && len(result.Values) >= maxResults {
				break
			}
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				msg := formatJQError(label, err)
				if !seenErrors[msg] {
					result.Errors = append(result.Errors, msg)
					seenErrors[msg] = true
				}
				continue
			}
			if v == nil {
				continue
			}

			result.RawCount++
			if deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			result.Values = append(result.Values, v)
		}
	}

	return result, nil
}

// ValidateExpression checks a JQ expression without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return fmt.Errorf("invalid jq expression: %w", err)
	}
	if _, err := gojq.Compile(query); err != nil {
		return fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return nil
}

// formatJQError decorates a runtime JQ error with a hint for common
// mistakes. Runtime errors from gojq are plain errors, so the hints rely on
// string matching; they only affect display, never control flow.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the field may not exist on this record)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	}
	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey builds a deduplication key for a produced value.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
