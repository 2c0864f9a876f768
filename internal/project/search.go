package project

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinQuery    = 2
	DefaultSearchLimit = 500
)

// Match is one line containing the query.
type Match struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Search finds query in every plaintext file, case-insensitively, in
// project order. The active file is searched in its live editor text.
// Short queries return nothing and at most limit matches are returned.
func (s *System) Search(query string, limit int) []Match {
	if utf8.RuneCountInString(query) < s.opts.MinQuery {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(query)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Match
	for _, f := range s.allLocked() {
		if !f.IsPlaintext() {
			continue
		}
		for i, line := range strings.Split(string(f.Snapshot()), "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			out = append(out, Match{File: f.Name(), Line: i + 1, Text: strings.TrimSpace(line)})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
