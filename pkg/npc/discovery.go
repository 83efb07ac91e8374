package npc

import (
	"regexp"
	"strings"
)

// properNoun matches one to three capitalized words in a row.
var properNoun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+){0,2}\b`)

var defaultDeny = []string{
	"i", "you", "he", "she", "it", "they", "we", "me", "him", "them", "us",
	"the", "a", "an", "this", "that", "these", "those", "there", "here",
	"his", "her", "their", "your", "my", "our", "its", "yours",
	"what", "when", "where", "who", "why", "how", "which",
	"yes", "no", "not", "and", "but", "or", "so", "then", "as", "if",
	"in", "on", "at", "with", "from", "into", "to", "of", "by", "for",
	"sir", "madam", "lady", "lord", "master", "mistress", "friend", "stranger",
	"traveler", "traveller", "adventurer", "hero", "god", "gods",
	"day", "night", "morning", "evening", "dawn", "dusk",
	"north", "south", "east", "west",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december",
	"welcome", "hello", "greetings", "farewell", "oh", "ah", "alas",
	"exits", "danger", "inventory", "weapon", "armor",
}

// Discoverer scans narrative text for names of people the session has not
// met yet. It is a best-effort heuristic: sentence-initial words are
// skipped and a deny list filters common capitalized words.
type Discoverer struct {
	enabled bool
	deny    StringSet
}

// NewDiscoverer returns a discoverer. A disabled one never reports names.
func NewDiscoverer(enabled bool, extraDeny ...string) *Discoverer {
	d := &Discoverer{enabled: enabled, deny: StringSet{}}
	for _, w := range defaultDeny {
		d.deny.Add(w)
	}
	for _, w := range extraDeny {
		d.deny.Add(strings.ToLower(w))
	}
	return d
}

// Enabled reports whether discovery is switched on.
func (d *Discoverer) Enabled() bool {
	return d != nil && d.enabled
}

// Candidates returns distinct possible names in order of appearance.
func (d *Discoverer) Candidates(text string) []string {
	if !d.Enabled() {
		return nil
	}
	seen := StringSet{}
	var out []string
	for _, loc := range properNoun.FindAllStringIndex(text, -1) {
		if sentenceStart(text, loc[0]) {
			continue
		}
		name := d.trim(text[loc[0]:loc[1]])
		if name == "" || seen.Has(strings.ToLower(name)) {
			continue
		}
		seen.Add(strings.ToLower(name))
		out = append(out, name)
	}
	return out
}

// trim drops denied words from the front and back of a multi-word match.
func (d *Discoverer) trim(match string) string {
	words := strings.Fields(match)
	for len(words) > 0 && d.deny.Has(strings.ToLower(words[0])) {
		words = words[1:]
	}
	for len(words) > 0 && d.deny.Has(strings.ToLower(words[len(words)-1])) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func sentenceStart(text string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch c := text[j]; c {
		case ' ', '\t', '"', '\'', '(', '*', '_':
			continue
		case '.', '!', '?', '\n', ':':
			return true
		default:
			return false
		}
	}
	return true
}

// Discover registers every unknown name found in text as a villager at
// location. isPlace filters names that are really locations.
func (m *Memory) Discover(d *Discoverer, text, location string, isPlace func(string) bool) []*NPC {
	var added []*NPC
	for _, name := range d.Candidates(text) {
		if _, known := m.Get(name); known {
			continue
		}
		if isPlace != nil && isPlace(name) {
			continue
		}
		n := New(name, RoleVillager, location, "")
		if err := m.Add(n); err != nil {
			continue
		}
		added = append(added, n)
	}
	return added
}
