package shared

import "testing"

func TestNormalizeQuery(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic normalization",
			input: "Artist Name",
			want:  "artist name",
		},
		{
			name:  "extra whitespace",
			input: "  Artist   Name  ",
			want:  "artist name",
		},
		{
			name:  "mixed case",
			input: "ArTiSt NaMe",
			want:  "artist name",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuery(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Errorf("expected unique IDs, got %s twice", a)
	}
}
