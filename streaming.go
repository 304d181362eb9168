package llm

// StreamEvent is a single unit of provider stream output. Each event carries
// either a delta or an error; a stream error aborts the attempt and the
// channel is closed after it.
type StreamEvent struct {
	// Delta is an incremental fragment of the response.
	Delta string

	// ToolSlot, when non-nil, identifies which tool/function call the delta
	// is an argument fragment of. Nil means a plain text delta. Only the
	// schema-constrained generic-adapter path populates it.
	ToolSlot *int

	// Err aborts the stream for this attempt (nil if successful).
	Err error
}

// Output is one emission of the invocation: one per accumulated delta, plus
// one terminal emission carrying the validated data and cost estimate. A
// terminal failure is delivered in-band via Err before the channel closes.
// Emissions before the terminal one are provisional: a transparent retry
// restarts the response from empty without retracting them.
type Output struct {
	// Result is a deprecated alias of Response.
	Result string

	// Response is the cumulative text response so far.
	Response string

	// Data is the structured object, present only when an output schema was
	// requested: best-effort partial mid-stream, validated on the terminal
	// emission.
	Data map[string]any

	// EstimatedCostUSD is a best-effort cost estimate, set only on the
	// terminal emission and nil when the model is unknown to the pricing
	// table.
	EstimatedCostUSD *float64

	// Err is the terminal failure, if any.
	Err error
}
