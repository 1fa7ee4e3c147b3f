package llm

import (
	"sort"
	"strings"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call with the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

// Model is one entry of the model catalog: a model the config can select,
// by alias or by ID, and its list price.
type Model struct {
	Backend string
	Alias   string // short name accepted in llm.<backend>.model; may be empty
	ID      string
	Cost    ModelCost
}

// catalog lists the models each backend's config is expected to name.
// Other IDs still pass through to the backend but have no known price.
var catalog = []Model{
	{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001", ModelCost{1, 5}},
	{"anthropic", "claude-sonnet", "claude-sonnet-4-20250514", ModelCost{3, 15}},
	{"openai", "gpt-4o-mini", "gpt-4o-mini", ModelCost{0.15, 0.6}},
	{"openai", "gpt-4o", "gpt-4o", ModelCost{2.5, 10}},
	{"gemini", "gemini-flash", "gemini-2.0-flash", ModelCost{0.1, 0.4}},
	{"gemini", "gemini-pro", "gemini-2.5-pro", ModelCost{1.25, 10}},
	{"openrouter", "", "google/gemini-2.0-flash-exp", ModelCost{0, 0}},
	{"openrouter", "", "google/gemini-2.0-flash-001", ModelCost{0.1, 0.4}},
	{"mock", "", "mock", ModelCost{0, 0}},
}

// resolveModel maps an alias to its model ID for backend. Anything else is
// taken as a literal model ID.
func resolveModel(backend, name string) string {
	for _, m := range catalog {
		if m.Backend == backend && m.Alias != "" && m.Alias == name {
			return m.ID
		}
	}
	return name
}

// LookupCost returns the price of a model as recorded in request events,
// or nil when it is not in the catalog. Dated snapshots such as
// gpt-4o-mini-2024-07-18 and OpenRouter variants such as
// google/gemini-2.0-flash-exp:free are priced as their base model.
func LookupCost(modelID string) *ModelCost {
	if m, ok := lookupModel(modelID); ok {
		c := m.Cost
		return &c
	}
	return nil
}

func lookupModel(modelID string) (Model, bool) {
	base, _, _ := strings.Cut(modelID, ":")
	var best Model
	found := false
	for _, m := range catalog {
		if m.ID == base {
			return m, true
		}
		// Longest prefix wins so gpt-4o-mini-... is not priced as gpt-4o.
		if strings.HasPrefix(base, m.ID+"-") && len(m.ID) > len(best.ID) {
			best, found = m, true
		}
	}
	return best, found
}

// Models returns the catalog entries for backend, or every entry when
// backend is empty, ordered by backend then ID.
func Models(backend string) []Model {
	var out []Model
	for _, m := range catalog {
		if backend == "" || m.Backend == backend {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Backend != out[j].Backend {
			return out[i].Backend < out[j].Backend
		}
		return out[i].ID < out[j].ID
	})
	return out
}
