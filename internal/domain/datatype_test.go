package domain

import (
	"slices"
	"testing"
)

func TestFormatCodeMap(t *testing.T) {
	tests := []struct {
		states int
		want   string
	}{
		{0, "? ="},
		{1, "0 = 0, ? = 0"},
		{3, "0 = 0, 1 = 1, 2 = 2, ? = 0 1 2"},
	}

	for _, tt := range tests {
		if got := FormatCodeMap(tt.states); got != tt.want {
			t.Errorf("FormatCodeMap(%d) = %q, want %q", tt.states, got, tt.want)
		}
	}
}

func TestParseCodeMap(t *testing.T) {
	tests := []struct {
		name    string
		codeMap string
		states  int
		wantErr bool
		wantLen int
	}{
		{"synthesized", FormatCodeMap(4), 4, false, 5},
		{"nucleotide subset", "A = 0, C = 1, R = 0 2, G = 2", 3, false, 4},
		{"missing equals", "A 0", 1, true, 0},
		{"state out of range", "A = 3", 2, true, 0},
		{"duplicate symbol", "A = 0, A = 1", 2, true, 0},
		{"not a number", "A = x", 2, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseCodeMap(tt.codeMap, tt.states)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCodeMap() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(entries) != tt.wantLen {
				t.Errorf("ParseCodeMap() returned %d entries, want %d", len(entries), tt.wantLen)
			}
		})
	}
}

func TestGenericData_Codes(t *testing.T) {
	dt, err := NewGenericData("dna", "nucleotide", 4, 1, "A = 0, C = 1, G = 2, T = 3, U = 3, R = 0 2, ? = 0 1 2 3")
	if err != nil {
		t.Fatalf("NewGenericData() error = %v", err)
	}

	tests := []struct {
		symbol    string
		code      int
		ambiguous bool
	}{
		{"A", 0, false},
		{"T", 3, false},
		{"U", 3, false},
		{"R", 4, true},
		{"?", 5, true},
	}
	for _, tt := range tests {
		code, ok := dt.Code(tt.symbol)
		if !ok {
			t.Fatalf("Code(%q) not found", tt.symbol)
		}
		if code != tt.code {
			t.Errorf("Code(%q) = %d, want %d", tt.symbol, code, tt.code)
		}
		if dt.IsAmbiguous(code) != tt.ambiguous {
			t.Errorf("IsAmbiguous(%d) = %v, want %v", code, !tt.ambiguous, tt.ambiguous)
		}
	}
	if !dt.IsAmbiguous(MissingCode) {
		t.Error("MissingCode should be ambiguous")
	}
	if _, ok := dt.DeclaredStateCount(0); ok {
		t.Error("generic data should never declare a state count")
	}
}

func TestGenericData_Sized(t *testing.T) {
	dt, err := NewGenericData("dna", "nucleotide", 4, 1, "A = 0, C = 1, G = 2, T = 3, N = 0 1 2 3")
	if err != nil {
		t.Fatalf("NewGenericData() error = %v", err)
	}

	sized, ok := dt.Sized("morphDataType.X3", 3).(*GenericData)
	if !ok {
		t.Fatalf("Sized() did not return *GenericData")
	}
	if sized.ID != "morphDataType.X3" || sized.States != 3 || sized.CodeLength != 1 {
		t.Errorf("Sized() = %+v", sized)
	}
	if sized.CodeMap != "0 = 0, 1 = 1, 2 = 2, ? = 0 1 2" {
		t.Errorf("Sized() code map = %q", sized.CodeMap)
	}
	if code, _ := sized.Code("?"); !sized.IsAmbiguous(code) {
		t.Errorf("wildcard code %d should be ambiguous", code)
	}
}

func TestStandardData_DeclaredStateCount(t *testing.T) {
	dt := &StandardData{
		ID:         "morph",
		NrOfStates: 4,
		CharStateLabels: []CharStateLabel{
			{Name: "wings", States: []string{"absent", "present"}},
			{Name: "colour"},
			{Name: "legs", States: []string{"zero", "two", "four", "six"}},
		},
	}

	tests := []struct {
		site     int
		want     int
		declared bool
	}{
		{0, 2, true},
		{1, 0, false},
		{2, 4, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		got, ok := dt.DeclaredStateCount(tt.site)
		if got != tt.want || ok != tt.declared {
			t.Errorf("DeclaredStateCount(%d) = (%d, %v), want (%d, %v)", tt.site, got, ok, tt.want, tt.declared)
		}
	}
}

func TestStandardData_SizedCopiesAmbiguities(t *testing.T) {
	dt := &StandardData{
		ID:              "morph",
		NrOfStates:      5,
		Ambiguities:     []string{"01", "23"},
		CharStateLabels: []CharStateLabel{{Name: "a", States: []string{"x", "y"}}},
	}

	sized, ok := dt.Sized("morphDataType.M2", 2).(*StandardData)
	if !ok {
		t.Fatalf("Sized() did not return *StandardData")
	}
	if sized.NrOfStates != 2 || sized.ID != "morphDataType.M2" {
		t.Errorf("Sized() = %+v", sized)
	}
	if !slices.Equal(sized.Ambiguities, dt.Ambiguities) {
		t.Errorf("Sized() ambiguities = %v, want %v", sized.Ambiguities, dt.Ambiguities)
	}
	if len(sized.CharStateLabels) != 0 {
		t.Errorf("Sized() kept %d labels", len(sized.CharStateLabels))
	}
	sized.Ambiguities[0] = "changed"
	if dt.Ambiguities[0] != "01" {
		t.Error("Sized() shares the ambiguity slice with its source")
	}
}

func TestStandardData_Restrict(t *testing.T) {
	dt := &StandardData{
		ID:         "morph",
		NrOfStates: 3,
		CharStateLabels: []CharStateLabel{
			{Name: "a", States: []string{"x", "y"}},
			{Name: "b", States: []string{"x", "y", "z"}},
		},
	}

	restricted := dt.Restrict([]int{1, 4}).(*StandardData)
	if n, ok := restricted.DeclaredStateCount(0); !ok || n != 3 {
		t.Errorf("restricted site 0 = (%d, %v), want (3, true)", n, ok)
	}
	if _, ok := restricted.DeclaredStateCount(1); ok {
		t.Error("restricted site 1 should have no declared count")
	}
}
