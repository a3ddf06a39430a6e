package llm

import "strings"

// ModelFeatures are the per-family feature flags the adapter consults
// when building a request.
type ModelFeatures struct {
	// SupportsToolCalling reports whether function declarations may be
	// sent to this family at all.
	SupportsToolCalling bool
	// SupportsTemperature reports whether the family accepts an explicit
	// temperature parameter. The o3 and o4-mini families reject one.
	SupportsTemperature bool
}

// modelFamilies is the static capability table, ordered most specific
// family first so that e.g. "o1-mini" wins over "o1". This is
// configuration data, not derived logic: update it as new models ship.
var modelFamilies = []struct {
	Family   string
	Features ModelFeatures
}{
	{"o1-mini", ModelFeatures{SupportsToolCalling: false, SupportsTemperature: true}},
	{"o4-mini", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: false}},
	{"o3-mini", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: false}},
	{"o3", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: false}},
	{"o1", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
	{"gpt-4-turbo", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
	{"gpt-4o-mini", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
	{"gpt-4o", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
	{"gpt-4.1", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
	{"gpt-4.5", ModelFeatures{SupportsToolCalling: true, SupportsTemperature: true}},
}

// defaultFeatures applies to model names matching no known family:
// no tool calling, temperature accepted.
var defaultFeatures = ModelFeatures{SupportsToolCalling: false, SupportsTemperature: true}

// FeaturesFor looks up the capability table by substring match on the
// model name. First match wins.
func FeaturesFor(model string) ModelFeatures {
	for _, entry := range modelFamilies {
		if strings.Contains(model, entry.Family) {
			return entry.Features
		}
	}
	return defaultFeatures
}
