package inline

import (
	"reflect"
	"testing"
)

func Test_Parse_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{
			name:    "no references",
			content: "just chatting about bolts",
			want:    nil,
		},
		{
			name:    "single reference",
			content: "have you seen <<Lightning Bolt>>?",
			want:    []string{"Lightning Bolt"},
		},
		{
			name:    "multiple references keep order",
			content: "<<Shock>> is worse than <<Lightning Bolt>>",
			want:    []string{"Shock", "Lightning Bolt"},
		},
		{
			name:    "names are trimmed",
			content: "<<  Counterspell >>",
			want:    []string{"Counterspell"},
		},
		{
			name:    "empty reference skipped",
			content: "<<>> <<   >> <<Opt>>",
			want:    []string{"Opt"},
		},
		{
			name:    "duplicates ignoring case removed",
			content: "<<Opt>> and <<opt>> again",
			want:    []string{"Opt"},
		},
		{
			name:    "limit applied",
			content: "<<a>> <<b>> <<c>>",
			limit:   2,
			want:    []string{"a", "b"},
		},
		{
			name:    "unterminated reference ignored",
			content: "<<Lightning Bolt",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.content, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q, %d) = %#v, want %#v", tt.content, tt.limit, got, tt.want)
			}
		})
	}
}

func Test_Contains(t *testing.T) {
	t.Parallel()

	if !Contains("look <<Opt>>") {
		t.Error("Contains should report a reference")
	}
	if Contains("look <<>>") {
		t.Error("Contains should ignore empty references")
	}
}
