// Package filter hides candidate posts matching a tag blacklist.
//
// Each blacklist entry is one rule of space-separated terms, as on the
// board's own blacklist:
//
//	gore            hide posts tagged gore
//	feral -solo     hide feral posts unless they are also tagged solo
//	~cat ~dog       hide posts tagged cat or dog
//	*_(artist)      a * matches any run of characters
//
// A post is hidden when every plain term is present, no negated term is
// present and, if the rule has ~ terms, at least one of them is present.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/source"
)

// Rule is one parsed blacklist entry
type Rule struct {
	Line     string
	required []string
	excluded []string
	anyOf    []string
}

// ParseRule parses a blacklist entry
func ParseRule(line string) (Rule, error) {
	rule := Rule{Line: strings.Join(strings.Fields(line), " ")}

	for _, term := range strings.Fields(strings.ToLower(line)) {
		switch {
		case strings.HasPrefix(term, "-"):
			rule.excluded = append(rule.excluded, term[1:])
		case strings.HasPrefix(term, "~"):
			rule.anyOf = append(rule.anyOf, term[1:])
		default:
			rule.required = append(rule.required, term)
		}
	}

	for _, terms := range [][]string{rule.excluded, rule.anyOf} {
		for _, t := range terms {
			if t == "" {
				return Rule{}, fmt.Errorf("empty term in blacklist rule %q", line)
			}
		}
	}
	if len(rule.required) == 0 && len(rule.anyOf) == 0 {
		return Rule{}, fmt.Errorf("blacklist rule %q has nothing to match", line)
	}

	return rule, nil
}

// Match reports whether a post with these tags is hidden by the rule
func (r Rule) Match(tags []string) bool {
	for _, pattern := range r.required {
		if !anyTag(tags, pattern) {
			return false
		}
	}
	for _, pattern := range r.excluded {
		if anyTag(tags, pattern) {
			return false
		}
	}
	if len(r.anyOf) > 0 {
		for _, pattern := range r.anyOf {
			if anyTag(tags, pattern) {
				return true
			}
		}
		return false
	}
	return true
}

// Result is the outcome of checking one post
type Result struct {
	Hidden bool
	Rule   string // The first matching rule
}

// Filter applies a list of blacklist rules
type Filter struct {
	rules []Rule
}

// New parses blacklist entries. Blank entries are ignored.
func New(lines []string) (*Filter, error) {
	f := &Filter{}
	var errs []error

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rule, err := ParseRule(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.rules = append(f.rules, rule)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f, nil
}

// Len returns the number of rules
func (f *Filter) Len() int {
	return len(f.rules)
}

// Apply checks a post's tags against every rule
func (f *Filter) Apply(tags []string) Result {
	for _, r := range f.rules {
		if r.Match(tags) {
			return Result{Hidden: true, Rule: r.Line}
		}
	}
	return Result{}
}

// Hides reports whether any rule hides the post
func (f *Filter) Hides(post source.RawPost) bool {
	res := f.Apply(post.Tags)
	if res.Hidden {
		logging.Debug().Uint32("post", post.ID).Str("rule", res.Rule).Msg("post blacklisted")
	}
	return res.Hidden
}

func anyTag(tags []string, pattern string) bool {
	for _, tag := range tags {
		if matchWildcard(pattern, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// matchWildcard matches s against a pattern where * matches any run of
// characters, including none
func matchWildcard(pattern, s string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}

	return strings.HasSuffix(s, last)
}
