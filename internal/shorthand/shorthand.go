// Package shorthand maps short user-facing tokens to full record ids.
//
// Resolution order: exact id match, exact alias match, unambiguous id
// prefix. Everything else is a typed NotFound or Ambiguous error naming
// the token, the table searched and any competing candidates.
//
// The package also derives the display shorthands shown next to feeds and
// posts: feeds get home-row strings derived from their id (stable across
// machines, since ids are), posts get compact index strings in display
// order.
package shorthand

import (
	"fmt"
	"strings"
)

// Entry is one resolvable record: its full id and an optional user alias.
type Entry struct {
	ID    string
	Alias string
}

// NotFoundError reports a token that matched nothing.
type NotFoundError struct {
	Table string
	Token string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matches %q", e.Table, e.Token)
}

// AmbiguousError reports a prefix token that matched several ids.
type AmbiguousError struct {
	Table      string
	Token      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q is ambiguous in %s: matches %s",
		e.Token, e.Table, strings.Join(e.Candidates, ", "))
}

// Resolve maps token to a record id. table names the searched table in
// errors. A leading "@" on the token is accepted and ignored.
func Resolve(table string, entries []Entry, token string) (string, error) {
	token = strings.TrimPrefix(token, "@")
	if token == "" {
		return "", &NotFoundError{Table: table, Token: token}
	}

	for _, e := range entries {
		if e.ID == token {
			return e.ID, nil
		}
	}
	for _, e := range entries {
		if e.Alias != "" && e.Alias == token {
			return e.ID, nil
		}
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.ID, token) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Table: table, Token: token}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Table: table, Token: token, Candidates: matches}
	}
}
