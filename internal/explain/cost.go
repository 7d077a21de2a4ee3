package explain

import "fmt"

// CostEstimate holds the expected API cost of one Summarize call.
type CostEstimate struct {
	InputTokens  int
	OutputTokens int
	MinCost      float64
	MaxCost      float64
	ModuleCount  int
}

// EstimateCost approximates the cost of summarizing an affected-by result
// with changedCount changed modules and affectedCount affected modules.
//
// Claude Haiku pricing (as of 2025): $0.25/M input tokens (cache write
// 1.25x, cache read 0.1x after the first call), $1.25/M output tokens. The
// system prompt is fixed and cached across repeated calls in one process.
func EstimateCost(changedCount, affectedCount int) CostEstimate {
	const systemPromptTokens = 150
	const perModuleTokens = 8 // one dotted import path line, tokenized

	totalInput := systemPromptTokens + (changedCount+affectedCount)*perModuleTokens
	totalOutput := 250 // a few sentences

	const inputCostPerMTok = 0.25
	const outputCostPerMTok = 1.25

	cacheWriteCost := float64(systemPromptTokens) / 1_000_000 * inputCostPerMTok * 1.25
	cacheReadCost := float64(totalInput-systemPromptTokens) / 1_000_000 * inputCostPerMTok
	outputCost := float64(totalOutput) / 1_000_000 * outputCostPerMTok

	minCost := cacheWriteCost + cacheReadCost*0.1 + outputCost
	maxCost := minCost * 1.5

	return CostEstimate{
		InputTokens:  totalInput,
		OutputTokens: totalOutput,
		MinCost:      minCost,
		MaxCost:      maxCost,
		ModuleCount:  changedCount + affectedCount,
	}
}

// FormatCost returns a human-readable cost range string.
func (c CostEstimate) FormatCost() string {
	if c.MaxCost < 0.01 {
		return "< $0.01"
	}
	return fmt.Sprintf("$%.3f - $%.3f", c.MinCost, c.MaxCost)
}
