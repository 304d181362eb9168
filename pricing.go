package llm

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/pricing/models.yaml
var pricingYAML []byte

// Pricing Philosophy:
//
// The pricing table provides best-effort, post-hoc cost estimates for UX and
// reporting. It is never authoritative for billing and never fails an
// invocation: an unknown model simply yields no estimate.
//
// Prices drift as providers update them. Library users can override the
// embedded table with LoadPricingFromFile() or RegisterModelPricing().

// ModelPricing holds per-million-token prices in USD.
type ModelPricing struct {
	InputPer1M  float64 `yaml:"input_per_1m"`
	OutputPer1M float64 `yaml:"output_per_1m"`
}

type pricingTable struct {
	Version     string                  `yaml:"version"`
	LastUpdated string                  `yaml:"last_updated"`
	Models      map[string]ModelPricing `yaml:"models"`
}

// PricingRegistry maps model identifiers to pricing information.
type PricingRegistry struct {
	models map[string]ModelPricing
	mu     sync.RWMutex
}

var (
	globalPricing     *PricingRegistry
	globalPricingOnce sync.Once
)

// GetPricingRegistry returns the global pricing registry, loaded from the
// embedded table on first use.
func GetPricingRegistry() *PricingRegistry {
	globalPricingOnce.Do(func() {
		globalPricing = &PricingRegistry{models: make(map[string]ModelPricing)}
		if err := globalPricing.loadEmbedded(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load embedded pricing table: %v\n", err)
		}
	})
	return globalPricing
}

func (r *PricingRegistry) loadEmbedded() error {
	var table pricingTable
	if err := yaml.Unmarshal(pricingYAML, &table); err != nil {
		return fmt.Errorf("failed to unmarshal pricing table: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for model, pricing := range table.Models {
		r.models[model] = pricing
	}
	return nil
}

// Lookup returns pricing for a model identifier, or false when unknown.
func (r *PricingRegistry) Lookup(model string) (ModelPricing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pricing, ok := r.models[model]
	return pricing, ok
}

// RegisterModelPricing programmatically adds or overrides one model's prices.
func (r *PricingRegistry) RegisterModelPricing(model string, pricing ModelPricing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model] = pricing
}

// LoadPricingFromFile merges a YAML pricing file over the registry. The file
// format matches the embedded table.
func (r *PricingRegistry) LoadPricingFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pricing file: %w", err)
	}

	var table pricingTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("failed to unmarshal pricing file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for model, pricing := range table.Models {
		r.models[model] = pricing
	}
	return nil
}

// EstimateCost computes a best-effort USD cost for one completed invocation
// from the final message list and completion text. Returns nil when the
// model is unknown to the table; this never fails the invocation.
func (r *PricingRegistry) EstimateCost(model string, messages []ChatMessage, completion string, counter TokenCounter) *float64 {
	pricing, ok := r.Lookup(model)
	if !ok {
		return nil
	}
	if counter == nil {
		counter = HeuristicCounter{}
	}

	inputTokens := counter.CountTokens(model, messages)
	outputTokens := counter.CountTokens(model, []ChatMessage{{Role: RoleAssistant, Content: completion}})

	cost := float64(inputTokens)/1e6*pricing.InputPer1M +
		float64(outputTokens)/1e6*pricing.OutputPer1M
	return &cost
}
