package embedclient

// MaxBatchTokens is the token ceiling for one embedding request.
const MaxBatchTokens = 60_000

// DefaultMaxBatchInputs is the default ceiling on the number of inputs in
// one embedding request, overridable via Config.MaxBatchInputs.
const DefaultMaxBatchInputs = 128

// batchInput pairs a text with its estimated token cost, carried through
// batching so the cost is only computed once per text.
type batchInput struct {
	index  int
	text   string
	tokens int
}

// planBatches groups texts into batches that respect both the token
// ceiling and the input-count ceiling. A single text whose own cost
// exceeds the token ceiling is sent alone, matching the caller's declared
// oversize-single behavior rather than being rejected.
func planBatches(texts []string, maxInputs int) [][]batchInput {
	if maxInputs <= 0 {
		maxInputs = DefaultMaxBatchInputs
	}

	inputs := make([]batchInput, len(texts))
	for i, t := range texts {
		inputs[i] = batchInput{index: i, text: t, tokens: EstimateTokens(t)}
	}

	var batches [][]batchInput
	var current []batchInput
	var currentTokens int

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
	}

	for _, in := range inputs {
		if in.tokens > MaxBatchTokens {
			flush()
			batches = append(batches, []batchInput{in})
			continue
		}
		if len(current) > 0 && (currentTokens+in.tokens > MaxBatchTokens || len(current) >= maxInputs) {
			flush()
		}
		current = append(current, in)
		currentTokens += in.tokens
	}
	flush()

	return batches
}
