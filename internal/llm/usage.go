package llm

import (
	"sync"
	"time"
)

// UsageRecord is one append-only accounting entry for a single model call.
type UsageRecord struct {
	Operation    string        `json:"operation"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Duration     time.Duration `json:"duration"`
	CostEstimate float64       `json:"cost_estimate"`
}

// UsageSummary is the running fold over all records of one pipeline run.
type UsageSummary struct {
	Calls             int     `json:"calls"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalTokens       int     `json:"total_tokens"`
	EstimatedCost     float64 `json:"estimated_cost"`
}

// CostRate is the per-provider price per 1K input/output tokens, in USD.
type CostRate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Rates for the providers this repo knows about. Unknown providers fall back
// to a conservative default.
var defaultRates = map[string]CostRate{
	"gemini":    {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"openai":    {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"anthropic": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"fake":      {},
}

var fallbackRate = CostRate{InputPer1K: 0.0005, OutputPer1K: 0.0015}

// RateFor returns the cost rate for a provider key.
func RateFor(provider string) CostRate {
	if r, ok := defaultRates[provider]; ok {
		return r
	}
	return fallbackRate
}

// UsageTracker accumulates token usage and cost across concurrent gateway
// calls. One tracker is owned by exactly one pipeline run; it is the only
// shared mutable state in the analysis core, so appends are serialized.
type UsageTracker struct {
	mu      sync.Mutex
	rate    CostRate
	records []UsageRecord
	summary UsageSummary
}

func NewUsageTracker(rate CostRate) *UsageTracker {
	return &UsageTracker{rate: rate}
}

// Rate returns the cost rate the tracker prices calls with.
func (t *UsageTracker) Rate() CostRate {
	if t == nil {
		return fallbackRate
	}
	return t.rate
}

// Record appends one usage entry and updates the running totals.
func (t *UsageTracker) Record(operation string, inputTokens, outputTokens int, duration time.Duration) {
	if t == nil {
		return
	}
	cost := float64(inputTokens)/1000*t.rate.InputPer1K +
		float64(outputTokens)/1000*t.rate.OutputPer1K

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, UsageRecord{
		Operation:    operation,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Duration:     duration,
		CostEstimate: cost,
	})
	t.summary.Calls++
	t.summary.TotalInputTokens += inputTokens
	t.summary.TotalOutputTokens += outputTokens
	t.summary.TotalTokens += inputTokens + outputTokens
	t.summary.EstimatedCost += cost
}

// CostEstimate returns the accumulated cost so far.
func (t *UsageTracker) CostEstimate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary.EstimatedCost
}

// Summary returns a snapshot of the running totals.
func (t *UsageTracker) Summary() UsageSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// Records returns a copy of the append-only record list.
func (t *UsageTracker) Records() []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]UsageRecord, len(t.records))
	copy(out, t.records)
	return out
}
