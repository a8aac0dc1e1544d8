package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// DefaultModel is used when no model is configured; its prices are also the fallback tier.
const DefaultModel = "gpt-3.5-turbo"

// ModelInfo describes a model and its price in USD per one million tokens.
type ModelInfo struct {
	Name          string  `json:"name"`
	ContextTokens int     `json:"context_tokens"`
	InputPerM     float64 `json:"input"`
	OutputPerM    float64 `json:"output"`
}

var builtinModels = map[string]ModelInfo{
	"gpt-3.5-turbo": {
		Name:          "gpt-3.5-turbo",
		ContextTokens: 16385,
		InputPerM:     0.5,
		OutputPerM:    1.5,
	},
	"gpt-4": {
		Name:          "gpt-4",
		ContextTokens: 8192,
		InputPerM:     30,
		OutputPerM:    60,
	},
	"gpt-4-turbo-preview": {
		Name:          "gpt-4-turbo-preview",
		ContextTokens: 128000,
		InputPerM:     10,
		OutputPerM:    30,
	},
}

// PriceTable is a concurrency-safe model catalog with a fallback price tier.
type PriceTable struct {
	mu       sync.RWMutex
	models   map[string]ModelInfo
	fallback string
}

// NewPriceTable returns a table seeded with the built-in models.
func NewPriceTable() *PriceTable {
	p := &PriceTable{models: make(map[string]ModelInfo, len(builtinModels)), fallback: DefaultModel}
	for k, v := range builtinModels {
		p.models[k] = v
	}
	return p
}

// Lookup returns the catalog entry for a model.
func (p *PriceTable) Lookup(model string) (ModelInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	mi, ok := p.models[model]
	return mi, ok
}

// PriceFor returns the entry for a model, or the fallback tier when it is unknown.
func (p *PriceTable) PriceFor(model string) ModelInfo {
	if mi, ok := p.Lookup(model); ok {
		return mi
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.models[p.fallback]
}

// EstimateCost prices a completion in USD, rounded to 4 decimal places.
func (p *PriceTable) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	mi := p.PriceFor(model)
	in := float64(inputTokens) / 1_000_000 * mi.InputPerM
	out := float64(outputTokens) / 1_000_000 * mi.OutputPerM
	return roundTo(in+out, 4)
}

// Merge adds or replaces catalog entries. The fallback entry can be overridden but not removed.
func (p *PriceTable) Merge(m map[string]ModelInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		p.models[k] = v
	}
}

// Models returns the catalog sorted by name.
func (p *PriceTable) Models() []ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ModelInfo, 0, len(p.models))
	for _, v := range p.models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadCatalogFromJSON loads price overrides keyed by model name, for example:
//
//	{"gpt-4o-mini": {"context_tokens": 128000, "input": 0.15, "output": 0.6}}
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	return m, nil
}

func roundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
