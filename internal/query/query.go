// Package query parses the library query language and translates it to SQL.
//
// Syntax:
//
//	keyword               full-text search
//	artist:beatles        field substring
//	title:=Help!          exact match
//	genre::^rock          glob pattern
//	year:1960..1969       range
//	added:-2w             relative date
//	^genre:jazz           negation
//	year+  added-         sort directives
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/franz/music-librarian/internal/util"
)

// Term is one parsed element of a query string
type Term interface {
	term()
}

// FullText is a free-text search term matched against the FTS index
type FullText struct {
	Text string
}

// Filter is a field-based predicate
type Filter struct {
	Negated bool
	Field   string
	Op      Op
	Value   string // operand; range start, empty means open
	End     string // range end, empty means open
}

// Sort is a result ordering directive
type Sort struct {
	Field     string
	Ascending bool
}

func (FullText) term() {}
func (Filter) term()   {}
func (Sort) term()     {}

// Op is the comparison a Filter performs
type Op int

const (
	// OpSubstring matches with LIKE '%value%' (the default)
	OpSubstring Op = iota
	// OpExact matches with equality
	OpExact
	// OpGlob matches with GLOB
	OpGlob
	// OpRange matches with BETWEEN / >= / <=
	OpRange
	// OpSince matches added-style dates not older than the operand
	OpSince
)

// queryFields are the item fields usable in filters and sort directives
var queryFields = map[string]bool{
	"id":          true,
	"album_id":    true,
	"path":        true,
	"title":       true,
	"artist":      true,
	"album":       true,
	"albumartist": true,
	"genre":       true,
	"year":        true,
	"track":       true,
	"disc":        true,
	"format":      true,
	"bitrate":     true,
	"length":      true,
	"added":       true,
	"mtime":       true,
}

// IsStructured reports whether a query string uses the structured syntax
// (field filters or sort directives) rather than plain free text
func IsStructured(q string) bool {
	if strings.Contains(q, ":") {
		return true
	}
	for _, word := range strings.Fields(q) {
		if field, ok := strings.CutSuffix(word, "+"); ok && queryFields[field] {
			return true
		}
		if field, ok := strings.CutSuffix(word, "-"); ok && queryFields[field] {
			return true
		}
	}
	return false
}

// Parse splits a query string into terms
func Parse(q string) ([]Term, error) {
	var terms []Term

	for _, word := range strings.Fields(q) {
		if field, ok := strings.CutSuffix(word, "+"); ok && queryFields[field] {
			terms = append(terms, Sort{Field: field, Ascending: true})
			continue
		}
		if field, ok := strings.CutSuffix(word, "-"); ok && queryFields[field] {
			terms = append(terms, Sort{Field: field, Ascending: false})
			continue
		}

		negated := false
		if rest, ok := strings.CutPrefix(word, "^"); ok {
			negated = true
			word = rest
		}

		field, value, ok := strings.Cut(word, ":")
		if !ok {
			if negated {
				return nil, fmt.Errorf("%w: cannot negate full-text term %q", util.ErrInvalidQuery, word)
			}
			terms = append(terms, FullText{Text: word})
			continue
		}

		if !queryFields[field] {
			return nil, fmt.Errorf("%w: unknown field %q", util.ErrInvalidQuery, field)
		}

		f := parseFilter(field, value)
		f.Negated = negated
		terms = append(terms, f)
	}

	return terms, nil
}

func parseFilter(field, value string) Filter {
	if exact, ok := strings.CutPrefix(value, "="); ok {
		return Filter{Field: field, Op: OpExact, Value: exact}
	}

	if pattern, ok := strings.CutPrefix(value, ":"); ok {
		return Filter{Field: field, Op: OpGlob, Value: regexToGlob(pattern)}
	}

	if start, end, ok := strings.Cut(value, ".."); ok {
		return Filter{Field: field, Op: OpRange, Value: start, End: end}
	}

	if field == "added" && strings.HasPrefix(value, "-") {
		if date, ok := parseRelativeDate(value); ok {
			return Filter{Field: field, Op: OpSince, Value: date}
		}
	}

	return Filter{Field: field, Op: OpSubstring, Value: value}
}

// ToSQL converts a query string to a WHERE/ORDER BY clause over the items
// table. Free-text terms become subqueries against the FTS index so they
// can combine with field filters.
func ToSQL(q string) (string, error) {
	terms, err := Parse(q)
	if err != nil {
		return "", err
	}
	return TermsToSQL(terms), nil
}

// TermsToSQL converts parsed terms to a WHERE/ORDER BY clause
func TermsToSQL(terms []Term) string {
	var conditions, orderBy []string

	for _, term := range terms {
		switch t := term.(type) {
		case FullText:
			conditions = append(conditions, fmt.Sprintf(
				"id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '%s')", escape(t.Text)))
		case Filter:
			cond := filterToSQL(t)
			if t.Negated {
				cond = "NOT (" + cond + ")"
			}
			conditions = append(conditions, cond)
		case Sort:
			dir := "ASC"
			if !t.Ascending {
				dir = "DESC"
			}
			orderBy = append(orderBy, t.Field+" "+dir)
		}
	}

	var sb strings.Builder
	if len(conditions) > 0 {
		sb.WriteString("WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
		sb.WriteString(" ")
	}

	if len(orderBy) > 0 {
		sb.WriteString("ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	} else {
		sb.WriteString("ORDER BY artist, album, disc, track")
	}

	return sb.String()
}

func filterToSQL(f Filter) string {
	switch f.Op {
	case OpExact:
		return fmt.Sprintf("%s = '%s'", f.Field, escape(f.Value))
	case OpGlob:
		return fmt.Sprintf("%s GLOB '%s'", f.Field, escape(f.Value))
	case OpRange:
		switch {
		case f.Value != "" && f.End != "":
			return fmt.Sprintf("%s BETWEEN '%s' AND '%s'", f.Field, escape(f.Value), escape(f.End))
		case f.Value != "":
			return fmt.Sprintf("%s >= '%s'", f.Field, escape(f.Value))
		case f.End != "":
			return fmt.Sprintf("%s <= '%s'", f.Field, escape(f.End))
		default:
			return f.Field + " IS NOT NULL"
		}
	case OpSince:
		return fmt.Sprintf("%s >= '%s'", f.Field, escape(f.Value))
	default:
		return fmt.Sprintf("%s LIKE '%%%s%%'", f.Field, escape(f.Value))
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func regexToGlob(pattern string) string {
	pattern = strings.ReplaceAll(pattern, ".*", "*")
	pattern = strings.ReplaceAll(pattern, ".", "?")
	pattern = strings.ReplaceAll(pattern, "^", "")
	return strings.ReplaceAll(pattern, "$", "")
}

// parseRelativeDate converts values like -7d, -2w, -6m, -1y to the cutoff
// date they denote
func parseRelativeDate(value string) (string, bool) {
	value = strings.TrimPrefix(value, "-")
	if len(value) < 2 {
		return "", false
	}

	num, err := strconv.ParseInt(value[:len(value)-1], 10, 64)
	if err != nil {
		return "", false
	}

	var days int64
	switch value[len(value)-1] {
	case 'd':
		days = num
	case 'w':
		days = num * 7
	case 'm':
		days = num * 30
	case 'y':
		days = num * 365
	default:
		return "", false
	}

	cutoff := time.Now().UTC().AddDate(0, 0, int(-days))
	return cutoff.Format("2006-01-02"), true
}
