package types

import (
	"testing"
)

func TestMetadataRecordFieldNamesDeterministic(t *testing.T) {
	t.Parallel()

	r := &MetadataRecord{
		ID:   "syn1",
		Type: ProjectRecord,
		Fields: map[string]FieldValue{
			"studyStatus":   {Raw: "Active", Values: []string{"Active"}, Present: true},
			"diseaseFocus":  {Raw: "Neurofibromatosis 1", Values: []string{"Neurofibromatosis 1"}, Present: true},
			"fundingAgency": {Raw: "CTF", Values: []string{"CTF"}, Present: true},
		},
	}

	first := r.FieldNames()
	for i := 0; i < 10; i++ {
		if got := r.FieldNames(); len(got) != len(first) {
			t.Fatalf("field name count changed: %v vs %v", got, first)
		} else {
			for j := range got {
				if got[j] != first[j] {
					t.Fatalf("field order not deterministic: %v vs %v", got, first)
				}
			}
		}
	}

	if first[0] != "diseaseFocus" || first[1] != "fundingAgency" || first[2] != "studyStatus" {
		t.Errorf("expected sorted field names, got %v", first)
	}
}

func TestMetadataRecordMissingField(t *testing.T) {
	t.Parallel()

	r := &MetadataRecord{ID: "syn1", Type: DatasetRecord}
	if fv := r.Field("diseaseFocus"); fv.Present {
		t.Error("absent field must report Present=false")
	}
}

func TestConceptValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		concept Concept
		wantErr error
	}{
		{"valid", Concept{ID: "mesh:D009456", Label: "Neurofibromatosis 1", Vocabulary: "mesh"}, nil},
		{"missing id", Concept{Label: "x"}, ErrEmptyID},
		{"missing label", Concept{ID: "x"}, ErrEmptyLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.concept.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchConfigWithDefaults(t *testing.T) {
	t.Parallel()

	var nilCfg *SearchConfig
	d := nilCfg.WithDefaults()
	if d.Limit != 10 || d.LexicalWeight != 0.5 || d.EmbeddingWeight != 0.5 {
		t.Errorf("unexpected defaults: %+v", d)
	}

	custom := (&SearchConfig{Limit: 3, LexicalWeight: 0.7, EmbeddingWeight: 0.3}).WithDefaults()
	if custom.Limit != 3 || custom.LexicalWeight != 0.7 {
		t.Errorf("custom values overwritten: %+v", custom)
	}

	if err := (&SearchConfig{Limit: -1}).Validate(); err != ErrInvalidLimit {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}
