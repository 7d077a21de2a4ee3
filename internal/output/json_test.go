package output

import (
	"encoding/json"
	"testing"
)

func TestMarshalJSONRoundTrip(t *testing.T) {
	qr := NewQueryResult("depends-on", []string{"pkg.a"}, map[string]struct{}{
		"pkg.b": {},
	}, []string{"pkg.ghost"})

	data, err := MarshalJSON(qr)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var decoded JSONReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Kind != "depends-on" {
		t.Errorf("Kind = %q, want depends-on", decoded.Kind)
	}
	if len(decoded.Results) != 1 || decoded.Results[0] != "pkg.b" {
		t.Errorf("Results = %v, want [pkg.b]", decoded.Results)
	}
	if len(decoded.Unknown) != 1 || decoded.Unknown[0] != "pkg.ghost" {
		t.Errorf("Unknown = %v, want [pkg.ghost]", decoded.Unknown)
	}
}

func TestMarshalJSONOmitsEmptyFields(t *testing.T) {
	qr := NewQueryResult("depends-on", []string{"pkg.a"}, map[string]struct{}{}, nil)
	data, err := MarshalJSON(qr)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := raw["unknown"]; ok {
		t.Error("expected unknown field to be omitted when empty")
	}
	if _, ok := raw["package_grouped"]; ok {
		t.Error("expected package_grouped field to be omitted when unset")
	}
}

func TestMarshalStatsJSON(t *testing.T) {
	stats := GraphStats{ModuleCount: 10, ComponentCount: 9, CycleCount: 1, UnresolvedCount: 0}
	data, err := MarshalStatsJSON(stats)
	if err != nil {
		t.Fatalf("MarshalStatsJSON: %v", err)
	}
	var decoded JSONStats
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ModuleCount != 10 || decoded.ComponentCount != 9 || decoded.CycleCount != 1 {
		t.Errorf("decoded = %+v, want ModuleCount=10 ComponentCount=9 CycleCount=1", decoded)
	}
}
