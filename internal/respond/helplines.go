package respond

import (
	"fmt"
	"sort"
	"strings"
)

// Locale selects the helpline table used in crisis replies.
type Locale string

const (
	LocaleUS Locale = "us"
	LocaleUK Locale = "uk"
	LocaleCA Locale = "ca"
	LocaleAU Locale = "au"
	LocaleIN Locale = "in"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = LocaleUS

// Helpline is a single crisis service a person can reach.
type Helpline struct {
	Name    string `json:"name" yaml:"name"`
	Contact string `json:"contact" yaml:"contact"`
	Hours   string `json:"hours" yaml:"hours"`
}

func (h Helpline) String() string {
	if h.Hours == "" {
		return fmt.Sprintf("%s: %s", h.Name, h.Contact)
	}
	return fmt.Sprintf("%s: %s (%s)", h.Name, h.Contact, h.Hours)
}

// Directory lists the services for one locale.
type Directory struct {
	Emergency string     `json:"emergency" yaml:"emergency"`
	Helplines []Helpline `json:"helplines" yaml:"helplines"`
}

var directories = map[Locale]Directory{
	LocaleUS: {
		Emergency: "911",
		Helplines: []Helpline{
			{Name: "988 Suicide & Crisis Lifeline", Contact: "call or text 988", Hours: "24/7"},
			{Name: "Crisis Text Line", Contact: "text HOME to 741741", Hours: "24/7"},
		},
	},
	LocaleUK: {
		Emergency: "999",
		Helplines: []Helpline{
			{Name: "Samaritans", Contact: "call 116 123", Hours: "24/7"},
			{Name: "Shout", Contact: "text SHOUT to 85258", Hours: "24/7"},
		},
	},
	LocaleCA: {
		Emergency: "911",
		Helplines: []Helpline{
			{Name: "9-8-8 Suicide Crisis Helpline", Contact: "call or text 988", Hours: "24/7"},
			{Name: "Kids Help Phone", Contact: "call 1-800-668-6868 or text CONNECT to 686868", Hours: "24/7"},
		},
	},
	LocaleAU: {
		Emergency: "000",
		Helplines: []Helpline{
			{Name: "Lifeline Australia", Contact: "call 13 11 14 or text 0477 13 11 14", Hours: "24/7"},
			{Name: "Beyond Blue", Contact: "call 1300 22 4636", Hours: "24/7"},
		},
	},
	LocaleIN: {
		Emergency: "112",
		Helplines: []Helpline{
			{Name: "Tele-MANAS", Contact: "call 14416 or 1-800-891-4416", Hours: "24/7"},
			{Name: "KIRAN Mental Health Helpline", Contact: "call 1800-599-0019", Hours: "24/7"},
		},
	},
}

// Locales returns the supported locales, sorted.
func Locales() []Locale {
	out := make([]Locale, 0, len(directories))
	for l := range directories {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseLocale converts user input (case-insensitive) to a Locale. An empty
// string selects DefaultLocale.
func ParseLocale(s string) (Locale, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLocale, nil
	}
	if s == "gb" {
		s = "uk"
	}
	l := Locale(s)
	if _, ok := directories[l]; !ok {
		return "", fmt.Errorf("unsupported locale %q (supported: %s)", s, joinLocales(Locales()))
	}
	return l, nil
}

// DirectoryFor returns the helpline directory for l.
func DirectoryFor(l Locale) (Directory, bool) {
	d, ok := directories[l]
	if !ok {
		return Directory{}, false
	}
	d.Helplines = append([]Helpline(nil), d.Helplines...)
	return d, true
}

func joinLocales(ls []Locale) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
