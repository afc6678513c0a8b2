// Package respond maps a severity tier to a fixed, reviewed reply. Replies are
// rendered once per locale, so Select is a plain table lookup.
package respond

import (
	"strings"

	"github.com/Dicklesworthstone/lifeline/internal/core"
)

// Selector returns the canned reply for a tier.
type Selector struct {
	locale    Locale
	directory Directory
	responses map[core.SeverityTier]string
	fallback  string
}

// NewSelector renders the templates for locale. An empty locale selects
// DefaultLocale.
func NewSelector(locale Locale) (*Selector, error) {
	l, err := ParseLocale(string(locale))
	if err != nil {
		return nil, err
	}
	dir, _ := DirectoryFor(l)

	r := renderer(dir)
	s := &Selector{
		locale:    l,
		directory: dir,
		responses: make(map[core.SeverityTier]string, len(templates)),
		fallback:  r.Replace(fallbackTemplate),
	}
	for tier, tmpl := range templates {
		s.responses[tier] = r.Replace(tmpl)
	}
	return s, nil
}

// MustSelector is NewSelector for known-good locales.
func MustSelector(locale Locale) *Selector {
	s, err := NewSelector(locale)
	if err != nil {
		panic(err)
	}
	return s
}

// Select returns the reply for tier, or Fallback for an unknown tier.
func (s *Selector) Select(tier core.SeverityTier) string {
	if r, ok := s.responses[tier]; ok {
		return r
	}
	return s.fallback
}

// Fallback is the generic supportive reply used when no tier-specific
// template applies.
func (s *Selector) Fallback() string {
	return s.fallback
}

// Locale returns the locale the selector was rendered for.
func (s *Selector) Locale() Locale {
	return s.locale
}

// Directory returns the helpline directory in use.
func (s *Selector) Directory() Directory {
	d := s.directory
	d.Helplines = append([]Helpline(nil), d.Helplines...)
	return d
}

// IncludesHelplines reports whether the reply for tier lists every helpline.
func (s *Selector) IncludesHelplines(tier core.SeverityTier) bool {
	reply := s.Select(tier)
	for _, h := range s.directory.Helplines {
		if !strings.Contains(reply, h.Contact) {
			return false
		}
	}
	return true
}

func renderer(dir Directory) *strings.Replacer {
	lines := make([]string, len(dir.Helplines))
	for i, h := range dir.Helplines {
		lines[i] = "- " + h.String()
	}
	return strings.NewReplacer(
		placeholderHelplines, strings.Join(lines, "\n"),
		placeholderEmergency, dir.Emergency,
	)
}
