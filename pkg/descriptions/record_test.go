package descriptions

import "testing"

func TestEligible(t *testing.T) {
	described := Record{Description: "short copy", LongDescription: "long copy"}

	tests := []struct {
		name  string
		rec   Record
		force bool
		want  bool
	}{
		{
			name: "both_fields_present_skipped",
			rec:  described,
			want: false,
		},
		{
			name: "missing_description",
			rec:  Record{LongDescription: "long copy"},
			want: true,
		},
		{
			name: "missing_long_description",
			rec:  Record{Description: "short copy"},
			want: true,
		},
		{
			name: "whitespace_counts_as_missing",
			rec:  Record{Description: " \t ", LongDescription: "long copy"},
			want: true,
		},
		{
			name:  "force_selects_described_record",
			rec:   described,
			force: true,
			want:  true,
		},
		{
			name: "empty_record",
			rec:  Record{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.rec, tt.force); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligibleIsStateless(t *testing.T) {
	rec := Record{Description: "short copy", LongDescription: "long copy"}

	for i := 0; i < 3; i++ {
		if Eligible(rec, false) {
			t.Fatalf("run %d: Eligible() = true, want false", i)
		}
	}
	for i := 0; i < 3; i++ {
		if !Eligible(rec, true) {
			t.Fatalf("run %d with force: Eligible() = false, want true", i)
		}
	}
}
