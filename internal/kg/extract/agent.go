// Package extract holds the LLM-driven entity and relation extraction
// agents. Both batch their input records to bound prompt size, tolerate
// malformed per-batch responses, and deduplicate their accumulated
// output by key.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jarvislabs/kgraph/internal/config"
	"github.com/jarvislabs/kgraph/internal/llm"
)

// Low temperature favors consistent, repeatable extraction.
const extractionTemperature = 0.1

var logger = log.WithPrefix("extract")

type agent struct {
	llm llm.CompletionClient
	cfg config.PipelineConfig
}

// complete runs one LLM call under the configured per-call timeout.
func (a *agent) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.LLMTimeout())
	defer cancel()
	return a.llm.Complete(callCtx, prompt, extractionTemperature)
}

// batches splits n items into batch index ranges of the configured size.
func (a *agent) batches(n int) [][2]int {
	size := a.cfg.BatchSize
	var out [][2]int
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{i, end})
	}
	return out
}

// normalizeType resolves a raw type string from the LLM against the
// allowed enumeration, case-insensitively. Unknown types fall back to
// the given default.
func normalizeType(raw string, allowed []string, fallback string) string {
	raw = strings.TrimSpace(raw)
	for _, t := range allowed {
		if strings.EqualFold(raw, t) {
			return t
		}
	}
	return fallback
}

// mergeProps applies the documented merge policy: later-seen non-empty
// values override earlier ones. Batches are merged in input order after
// all batches complete, so the result does not depend on completion order.
func mergeProps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		dst[k] = v
	}
	return dst
}

func batchWarning(kind string, batch int, err error) string {
	return fmt.Sprintf("%s batch %d produced no results: %v", kind, batch, err)
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
