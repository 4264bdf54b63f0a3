package tracefile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/valiqor/valiqor/pkg/trace"
)

// Query runs the jq expression against each record and collects every
// value it yields, in record order.
func Query(ctx context.Context, records []trace.Record, expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, err)
	}

	var out []any
	for i, rec := range records {
		input, err := plain(rec)
		if err != nil {
			return nil, err
		}
		iter := code.RunWithContext(ctx, input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if qerr, isErr := v.(error); isErr {
				return nil, fmt.Errorf("filter failed on record %d: %w", i+1, qerr)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// plain converts a record to the generic JSON values gojq expects
func plain(rec trace.Record) (any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return v, nil
}
