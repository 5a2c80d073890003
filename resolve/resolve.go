// Package resolve maps a free-text exercise or food name onto a catalog
// entry. The ordering of the policy matters: an exact name match wins
// outright, a lone partial match is accepted as a convenience, several
// partial matches go back to the user as a clarifying question.
package resolve

import (
	"strings"

	"fitagent/gateway"
)

type State int

const (
	Resolved State = iota
	Ambiguous
	NotFound
)

func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Resolution is the outcome of resolving one query. Entry is only valid
// when State is Resolved; Candidates is populated when State is Ambiguous
// so the caller can present the choices.
type Resolution struct {
	State      State
	Entry      gateway.CatalogEntry
	Candidates []gateway.CatalogEntry
}

// Resolve applies the exact-match-priority policy to a query and its
// candidate list. Comparison is trimmed and case-insensitive throughout.
//
// A single exact match short-circuits everything, even when other
// candidates contain the query as a substring ("Squat" resolves to
// "Squat", not to {"Squat","Jump Squat"}).
func Resolve(query string, candidates []gateway.CatalogEntry) Resolution {
	q := strings.ToLower(strings.TrimSpace(query))

	var exact []gateway.CatalogEntry
	var partial []gateway.CatalogEntry
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		switch {
		case name == q:
			exact = append(exact, c)
		case strings.Contains(name, q):
			partial = append(partial, c)
		}
	}

	switch {
	case len(exact) == 1:
		return Resolution{State: Resolved, Entry: exact[0]}
	case len(exact) > 1:
		return Resolution{State: Ambiguous, Candidates: exact}
	case len(partial) == 1:
		return Resolution{State: Resolved, Entry: partial[0]}
	case len(partial) > 1:
		return Resolution{State: Ambiguous, Candidates: partial}
	}
	return Resolution{State: NotFound}
}
