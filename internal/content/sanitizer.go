package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// SanitizerRules is the allow-list the sanitizer is built from. Passed in
// explicitly so tests can run with alternate rules without process-wide state.
type SanitizerRules struct {
	ExtraTags   []string // allowed on top of the UGC base set
	GlobalAttrs []string // allowed on every element
	ImageAttrs  []string
	AnchorAttrs []string

	TextAlignValues []string
	FloatValues     []string
	ListStyleValues []string
	MarginPattern   *regexp.Regexp
}

func DefaultSanitizerRules() SanitizerRules {
	return SanitizerRules{
		ExtraTags:   []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "img", "table", "tr", "td"},
		GlobalAttrs: []string{"style", "class"},
		ImageAttrs:  []string{"src", "alt"},
		AnchorAttrs: []string{"href", "target"},

		TextAlignValues: []string{"left", "center", "right", "justify"},
		FloatValues:     []string{"left", "right"},
		ListStyleValues: []string{"disc", "circle", "square", "decimal", "lower-roman", "upper-roman", "lower-alpha", "upper-alpha"},
		MarginPattern:   regexp.MustCompile(`^\d+(px|%)$`),
	}
}

// Sanitizer strips markup outside a fixed allow-list. It is the sole defense
// against script injection in submitted content.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer(rules SanitizerRules) *Sanitizer {
	p := bluemonday.UGCPolicy()

	p.AllowElements(rules.ExtraTags...)
	p.AllowAttrs(rules.GlobalAttrs...).Globally()
	p.AllowAttrs(rules.ImageAttrs...).OnElements("img")
	p.AllowAttrs(rules.AnchorAttrs...).OnElements("a")

	// inline data URIs must survive sanitization: an embedded image whose
	// externalization failed stays in the content as-is
	p.AllowDataURIImages()

	p.AllowStyles("text-align").MatchingEnum(rules.TextAlignValues...).Globally()
	p.AllowStyles("float").MatchingEnum(rules.FloatValues...).Globally()
	p.AllowStyles("margin-left", "margin-right").Matching(rules.MarginPattern).Globally()
	p.AllowStyles("list-style-type").MatchingEnum(rules.ListStyleValues...).Globally()

	return &Sanitizer{policy: p}
}

// Sanitize never fails: malformed markup is corrected or stripped, and the
// text content of stripped tags is preserved.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
