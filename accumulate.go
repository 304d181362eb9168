package llm

import (
	"github.com/tidwall/gjson"
)

// AccumulatedState is a snapshot of a streaming accumulation run.
type AccumulatedState struct {
	// Output is every delta concatenated in delivery order.
	Output string

	// ToolBuffers holds the concatenated argument fragments per tool slot.
	ToolBuffers map[int]string

	// SlotOrder records tool slots in first-seen order; the finalizer merges
	// buffers in this order so later slots win on key collisions.
	SlotOrder []int

	// PartialData is the best-effort structured object rebuilt after every
	// delta from whatever slot buffers have become parseable so far.
	PartialData map[string]any
}

// Accumulator folds stream events into cumulative text output and a partial
// structured object. It owns no state across separate runs: create a fresh
// one per attempt.
type Accumulator struct {
	state AccumulatedState
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		state: AccumulatedState{
			ToolBuffers: make(map[int]string),
			PartialData: make(map[string]any),
		},
	}
}

// Feed applies one event and returns a snapshot of the full state, so the
// caller can surface incremental structured progress, not just text.
func (a *Accumulator) Feed(ev StreamEvent) AccumulatedState {
	a.state.Output += ev.Delta

	if ev.ToolSlot != nil {
		slot := *ev.ToolSlot
		if _, seen := a.state.ToolBuffers[slot]; !seen {
			a.state.SlotOrder = append(a.state.SlotOrder, slot)
		}
		a.state.ToolBuffers[slot] += ev.Delta
		a.mergePartial(a.state.ToolBuffers[slot])
	}

	return a.state.snapshot()
}

// State returns a snapshot of the final accumulated state.
func (a *Accumulator) State() AccumulatedState {
	return a.state.snapshot()
}

// mergePartial opportunistically decodes a slot buffer and shallow-merges
// its top-level keys. Decode failures are expected mid-stream (the buffer is
// incomplete JSON) and leave PartialData unchanged.
func (a *Accumulator) mergePartial(buffer string) {
	if !gjson.Valid(buffer) {
		return
	}
	parsed := gjson.Parse(buffer)
	if !parsed.IsObject() {
		return
	}
	parsed.ForEach(func(key, value gjson.Result) bool {
		a.state.PartialData[key.String()] = value.Value()
		return true
	})
}

func (s AccumulatedState) snapshot() AccumulatedState {
	out := AccumulatedState{
		Output:      s.Output,
		ToolBuffers: make(map[int]string, len(s.ToolBuffers)),
		SlotOrder:   append([]int(nil), s.SlotOrder...),
		PartialData: make(map[string]any, len(s.PartialData)),
	}
	for k, v := range s.ToolBuffers {
		out.ToolBuffers[k] = v
	}
	for k, v := range s.PartialData {
		out.PartialData[k] = v
	}
	return out
}
