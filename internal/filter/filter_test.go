package filter

import (
	"testing"

	"github.com/vijay-prabhu/tageval/internal/source"
)

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		name string
		rule string
		tags []string
		want bool
	}{
		{"single tag present", "gore", []string{"fox", "gore"}, true},
		{"single tag absent", "gore", []string{"fox"}, false},
		{"all required present", "feral solo", []string{"solo", "feral", "fox"}, true},
		{"one required missing", "feral solo", []string{"feral"}, false},
		{"negated tag present", "feral -solo", []string{"feral", "solo"}, false},
		{"negated tag absent", "feral -solo", []string{"feral", "duo"}, true},
		{"any of matches", "~cat ~dog", []string{"dog"}, true},
		{"any of misses", "~cat ~dog", []string{"fox"}, false},
		{"required with any of", "feral ~cat ~dog", []string{"feral", "cat"}, true},
		{"required without any of", "feral ~cat ~dog", []string{"feral"}, false},
		{"case insensitive", "Gore", []string{"GORE"}, true},
		{"wildcard suffix", "*_(artist)", []string{"someone_(artist)"}, true},
		{"wildcard prefix", "blue*", []string{"blue_eyes"}, true},
		{"wildcard middle", "b*e", []string{"blue"}, true},
		{"wildcard no match", "b*x", []string{"blue"}, false},
		{"no tags", "gore", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.rule)
			if err != nil {
				t.Fatalf("ParseRule(%q) failed: %v", tt.rule, err)
			}
			if got := rule.Match(tt.tags); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestParseRuleErrors(t *testing.T) {
	for _, line := range []string{"-solo", "   ", "fox -", "fox ~"} {
		if _, err := ParseRule(line); err == nil {
			t.Errorf("ParseRule(%q) expected error", line)
		}
	}
}

func TestMatchWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"fox", "fox", true},
		{"fox", "foxes", false},
		{"*", "", true},
		{"*", "anything", true},
		{"a*a", "a", false},
		{"a*a", "aa", true},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "acb", false},
	}

	for _, tt := range tests {
		if got := matchWildcard(tt.pattern, tt.s); got != tt.want {
			t.Errorf("matchWildcard(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	f, err := New([]string{"gore", "", "  feral   -solo "})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}

	res := f.Apply([]string{"feral", "duo"})
	if !res.Hidden || res.Rule != "feral -solo" {
		t.Errorf("Apply() = %+v, want hidden by 'feral -solo'", res)
	}

	if f.Hides(source.RawPost{ID: 1, Tags: []string{"feral", "solo"}}) {
		t.Error("expected solo feral post to be shown")
	}
	if !f.Hides(source.RawPost{ID: 2, Tags: []string{"gore"}}) {
		t.Error("expected gore post to be hidden")
	}

	if _, err := New([]string{"-solo", "fox", "~"}); err == nil {
		t.Error("expected error for invalid rules")
	}

	empty, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if empty.Apply([]string{"gore"}).Hidden {
		t.Error("empty filter hid a post")
	}
}
