package billing

import (
	"fmt"
	"math"
	"net/http"
)

// CostEstimate is the precheck-time cost estimate for a billed request.
type CostEstimate struct {
	EstimatedCost int64  // Minimum credits required to start the operation.
	Description   string // Human-readable summary for rejections and records.
}

// ActualCost is the postpayment-time charge for a completed request.
type ActualCost struct {
	Amount      int64          // Credits to debit.
	Description string         // Human-readable summary for the transaction.
	Metadata    map[string]any // Stored on the transaction's metadata bag.
}

// TokenUsage is the usage payload reported by token-metered handlers.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Strategy computes costs for one kind of billed operation.
//
// EstimateCost runs at precheck, before the handler; it must not consume a
// request body the handler still needs. CalculateActualCost runs at
// postpayment with whatever usage payload the handler reported (nil when it
// reported nothing).
type Strategy interface {
	Name() string
	EstimateCost(r *http.Request) CostEstimate
	CalculateActualCost(r *http.Request, usage any) ActualCost
}

// FixedStrategy charges a flat per-call cost and ignores usage data.
type FixedStrategy struct {
	StrategyName string
	Cost         int64
	Label        string // Operation label used in descriptions.
}

// Name returns the strategy identifier.
func (s FixedStrategy) Name() string { return s.StrategyName }

// EstimateCost returns the exact flat cost.
func (s FixedStrategy) EstimateCost(_ *http.Request) CostEstimate {
	return CostEstimate{
		EstimatedCost: s.Cost,
		Description:   fmt.Sprintf("%s - %d credits", s.Label, s.Cost),
	}
}

// CalculateActualCost returns the flat cost regardless of usage.
func (s FixedStrategy) CalculateActualCost(_ *http.Request, _ any) ActualCost {
	return ActualCost{
		Amount:      s.Cost,
		Description: fmt.Sprintf("%s charge", s.Label),
		Metadata: map[string]any{
			"type":       "fixed",
			"fixed_cost": s.Cost,
		},
	}
}

// MeteredStrategy charges per 1,000 consumed units, pricing input and output
// independently, rounding each priced component up to the next whole credit
// and enforcing a minimum charge so trivial usage is never free.
type MeteredStrategy struct {
	StrategyName      string
	Label             string
	InputPer1K        float64 // Credits per 1,000 input units.
	OutputPer1K       float64 // Credits per 1,000 output units.
	MinimumCharge     int64   // Floor for the total charge.
	PrecheckThreshold int64   // Minimum balance required at precheck.
}

// Name returns the strategy identifier.
func (s MeteredStrategy) Name() string { return s.StrategyName }

// EstimateCost returns the precheck threshold; real usage is unknown until
// the handler completes.
func (s MeteredStrategy) EstimateCost(_ *http.Request) CostEstimate {
	return CostEstimate{
		EstimatedCost: s.PrecheckThreshold,
		Description:   fmt.Sprintf("%s - minimum %d credits required", s.Label, s.PrecheckThreshold),
	}
}

// CalculateActualCost derives the charge from reported token usage. A nil or
// foreign usage payload yields the minimum charge.
func (s MeteredStrategy) CalculateActualCost(_ *http.Request, usage any) ActualCost {
	var tokens TokenUsage
	switch v := usage.(type) {
	case TokenUsage:
		tokens = v
	case *TokenUsage:
		if v != nil {
			tokens = *v
		}
	}
	if tokens.TotalTokens == 0 {
		tokens.TotalTokens = tokens.PromptTokens + tokens.CompletionTokens
	}

	inputCost := int64(math.Ceil(float64(tokens.PromptTokens) / 1000 * s.InputPer1K))
	outputCost := int64(math.Ceil(float64(tokens.CompletionTokens) / 1000 * s.OutputPer1K))
	total := inputCost + outputCost
	if total < s.MinimumCharge {
		total = s.MinimumCharge
	}

	return ActualCost{
		Amount:      total,
		Description: fmt.Sprintf("%s charge - %d input / %d output tokens", s.Label, tokens.PromptTokens, tokens.CompletionTokens),
		Metadata: map[string]any{
			"type":              "metered",
			"prompt_tokens":     tokens.PromptTokens,
			"completion_tokens": tokens.CompletionTokens,
			"total_tokens":      tokens.TotalTokens,
			"input_cost":        inputCost,
			"output_cost":       outputCost,
			"input_per_1k":      s.InputPer1K,
			"output_per_1k":     s.OutputPer1K,
		},
	}
}
