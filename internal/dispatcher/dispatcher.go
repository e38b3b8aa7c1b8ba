// Package dispatcher implements the nine unified batch MCP tools: every
// tool accepts an array of items and returns an array of per-item results
// in the same order, `{ok, value|error}`, rather than splitting successes
// and failures into separate arrays and losing input-order correspondence.
//
// Batches run their items concurrently; per-file-path serialization is
// already enforced by filestore.Store's own path locks, so the dispatcher
// itself does no extra keying.
package dispatcher

import (
	"encoding/json"
	"sync"

	"github.com/hoofy-agent/agent-memory/internal/errs"
)

// ItemError is the {kind, message} shape a failed batch item's error
// takes, letting callers branch on Kind instead of matching error text.
type ItemError struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// ItemResult is one batch item's outcome, in input order.
type ItemResult struct {
	OK    bool       `json:"ok"`
	Value any        `json:"value,omitempty"`
	Error *ItemError `json:"error,omitempty"`
}

// runBatch invokes fn for every index in [0, n) concurrently and collects
// results in input order. A panic-free failure from fn becomes a failed
// ItemResult rather than aborting the batch.
func runBatch(n int, fn func(i int) (any, error)) []ItemResult {
	out := make([]ItemResult, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			value, err := fn(i)
			if err != nil {
				out[i] = ItemResult{OK: false, Error: &ItemError{Kind: errs.KindOf(err), Message: errs.MessageOf(err)}}
				return
			}
			out[i] = ItemResult{OK: true, Value: value}
		}(i)
	}
	wg.Wait()
	return out
}

// decodeItems re-marshals a raw []any argument (as delivered by
// req.GetArguments()) into a typed slice, giving each element the
// dispatcher's usual JSON struct tags instead of hand-walking maps.
func decodeItems[T any](raw any) ([]T, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "expected an array of items")
	}
	data, err := json.Marshal(arr)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "encoding items")
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "decoding items")
	}
	return items, nil
}

func resultsToJSON(results []ItemResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.Internal, err, "encoding results")
	}
	return string(data), nil
}
