package llm

import (
	"reflect"
	"testing"
)

func slot(n int) *int { return &n }

func TestAccumulatorConcatenatesInDeliveryOrder(t *testing.T) {
	tests := []struct {
		name   string
		deltas []string
		want   string
	}{
		{"in order", []string{"a", "b", "c", "d"}, "abcd"},
		{"order is delivery order, not content order", []string{"cd", "ab"}, "cdab"},
		{"empty deltas are no-ops", []string{"", "ab", ""}, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			var state AccumulatedState
			for _, d := range tt.deltas {
				state = acc.Feed(StreamEvent{Delta: d})
			}
			if state.Output != tt.want {
				t.Errorf("Output = %q, want %q", state.Output, tt.want)
			}
		})
	}
}

func TestAccumulatorToolBuffersPerSlot(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(StreamEvent{Delta: `{"a":`, ToolSlot: slot(0)})
	acc.Feed(StreamEvent{Delta: `{"b": 2}`, ToolSlot: slot(1)})
	acc.Feed(StreamEvent{Delta: ` 1}`, ToolSlot: slot(0)})

	state := acc.State()
	if got := state.ToolBuffers[0]; got != `{"a": 1}` {
		t.Errorf("slot 0 buffer = %q", got)
	}
	if got := state.ToolBuffers[1]; got != `{"b": 2}` {
		t.Errorf("slot 1 buffer = %q", got)
	}
	if !reflect.DeepEqual(state.SlotOrder, []int{0, 1}) {
		t.Errorf("SlotOrder = %v, want first-seen order [0 1]", state.SlotOrder)
	}
}

func TestAccumulatorPartialDataGrowsAsBuffersParse(t *testing.T) {
	acc := NewAccumulator()

	// Incomplete JSON: no partial data yet.
	state := acc.Feed(StreamEvent{Delta: `{"name": "Al`, ToolSlot: slot(0)})
	if len(state.PartialData) != 0 {
		t.Fatalf("PartialData = %v before buffer is parseable", state.PartialData)
	}

	// Buffer completes: keys appear.
	state = acc.Feed(StreamEvent{Delta: `ice"}`, ToolSlot: slot(0)})
	if got := state.PartialData["name"]; got != "Alice" {
		t.Errorf(`PartialData["name"] = %v, want "Alice"`, got)
	}
}

func TestAccumulatorPartialDataUnionAcrossSlots(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(StreamEvent{Delta: `{"a": 1}`, ToolSlot: slot(0)})
	state := acc.Feed(StreamEvent{Delta: `{"b": 2}`, ToolSlot: slot(1)})

	if state.PartialData["a"] == nil || state.PartialData["b"] == nil {
		t.Errorf("PartialData = %v, want union of both slots", state.PartialData)
	}
}

func TestAccumulatorLaterSlotWinsOnCollision(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(StreamEvent{Delta: `{"a": 1}`, ToolSlot: slot(0)})
	state := acc.Feed(StreamEvent{Delta: `{"a": 2}`, ToolSlot: slot(1)})

	if got := state.PartialData["a"]; got != float64(2) {
		t.Errorf(`PartialData["a"] = %v, want 2`, got)
	}
}

func TestAccumulatorNonObjectBufferIgnored(t *testing.T) {
	acc := NewAccumulator()
	state := acc.Feed(StreamEvent{Delta: `[1, 2]`, ToolSlot: slot(0)})
	if len(state.PartialData) != 0 {
		t.Errorf("PartialData = %v, want empty for non-object buffer", state.PartialData)
	}
}

// Snapshots must be isolated: mutating a returned state must not affect the
// accumulator.
func TestAccumulatorSnapshotIsolation(t *testing.T) {
	acc := NewAccumulator()
	state := acc.Feed(StreamEvent{Delta: `{"a": 1}`, ToolSlot: slot(0)})
	state.PartialData["a"] = "mutated"
	state.ToolBuffers[0] = "mutated"

	fresh := acc.State()
	if fresh.PartialData["a"] == "mutated" || fresh.ToolBuffers[0] == "mutated" {
		t.Error("snapshot shares state with accumulator")
	}
}
