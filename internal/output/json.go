package output

import "encoding/json"

// JSONReport is the top-level JSON rendering of a query result.
type JSONReport struct {
	Kind           string              `json:"kind"`
	Inputs         []string            `json:"inputs"`
	Results        []string            `json:"results,omitempty"`
	PackageGrouped map[string][]string `json:"package_grouped,omitempty"`
	Unknown        []string            `json:"unknown,omitempty"`
}

// ToJSONReport converts a QueryResult to its JSON representation.
func ToJSONReport(qr QueryResult) JSONReport {
	return JSONReport{
		Kind:           qr.Kind,
		Inputs:         qr.Inputs,
		Results:        qr.Results,
		PackageGrouped: qr.PackageGrouped,
		Unknown:        qr.Unknown,
	}
}

// MarshalJSON renders qr as indented JSON bytes.
func MarshalJSON(qr QueryResult) ([]byte, error) {
	return json.MarshalIndent(ToJSONReport(qr), "", "  ")
}

// JSONStats is the JSON rendering of GraphStats.
type JSONStats struct {
	ModuleCount     int           `json:"module_count"`
	ComponentCount  int           `json:"component_count"`
	CycleCount      int           `json:"cycle_count"`
	UnresolvedCount int           `json:"unresolved_count"`
	GraphFileBytes  int64         `json:"graph_file_bytes,omitempty"`
	TopFanOut       []FanOutEntry `json:"top_fan_out,omitempty"`
}

// MarshalStatsJSON renders stats as indented JSON bytes.
func MarshalStatsJSON(stats GraphStats) ([]byte, error) {
	return json.MarshalIndent(JSONStats{
		ModuleCount:     stats.ModuleCount,
		ComponentCount:  stats.ComponentCount,
		CycleCount:      stats.CycleCount,
		UnresolvedCount: stats.UnresolvedCount,
		GraphFileBytes:  stats.GraphFileBytes,
		TopFanOut:       stats.TopFanOut,
	}, "", "  ")
}
