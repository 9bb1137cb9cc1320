// Package validate checks extracted cells against the types a datamap
// declares for them.
package validate

import (
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// State is a step in validating one datamap entry against one file.
type State int

const (
	Unvalidated State = iota
	ValueWanted
	ValueUnwanted
	Typed
	Untyped
	TypeMatched
	TypeNotMatched
	EmptyValue
	ValueGiven
	Complete
)

var stateNames = [...]string{
	Unvalidated:    "Unvalidated",
	ValueWanted:    "ValueWanted",
	ValueUnwanted:  "ValueUnwanted",
	Typed:          "Typed",
	Untyped:        "Untyped",
	TypeMatched:    "TypeMatched",
	TypeNotMatched: "TypeNotMatched",
	EmptyValue:     "EmptyValue",
	ValueGiven:     "ValueGiven",
	Complete:       "Complete",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// IsTerminal reports whether no further transitions apply.
func (s State) IsTerminal() bool {
	return s == Complete
}

// Context is the input to a validation step. Cell is nil when the file has
// no value at the entry's address.
type Context struct {
	Entry models.DatamapEntry
	File  string
	Cell  *models.ExtractedCell
}

func (c Context) declared() string {
	t, _ := c.Entry.DeclaredType()
	return string(t)
}

func (c Context) observed() string {
	if c.Cell == nil {
		return ""
	}
	return string(c.Cell.Type)
}

// Step applies one transition. It has no side effects; unknown states are
// returned unchanged.
func Step(s State, ctx Context, rec models.ValidationRecord) (State, models.ValidationRecord) {
	switch s {
	case Unvalidated:
		rec.File = ctx.File
		rec.Key = ctx.Entry.Key
		rec.Sheet = ctx.Entry.Sheet
		rec.CellRef = ctx.Entry.CellRef
		rec.Requested = ctx.Entry.Type != nil
		if ctx.Cell != nil {
			return ValueWanted, rec
		}
		return ValueUnwanted, rec

	case ValueUnwanted:
		rec.Outcome = models.OutcomeFail
		rec.Got = models.GotEmpty
		rec.Value = models.NoValue
		rec.Wanted = ctx.declared()
		if rec.Wanted == "" {
			rec.Wanted = models.NotRequired
		}
		return Complete, rec

	case ValueWanted:
		if ctx.declared() == "" {
			rec.Outcome = models.OutcomeUntyped
			rec.Wanted = models.NotRequired
			return Untyped, rec
		}
		return Typed, rec

	case Typed:
		if ctx.Cell == nil {
			return ValueUnwanted, rec
		}
		declared := models.ValueType(ctx.declared())
		rec.Wanted = string(declared)
		switch {
		case !declared.Known():
			// Surfaced as-is so the datamap author can correct it.
			rec.Outcome = models.OutcomeUntyped
			return TypeNotMatched, rec
		case declared == ctx.Cell.Type:
			rec.Outcome = models.OutcomePass
			return TypeMatched, rec
		default:
			rec.Outcome = models.OutcomeFail
			return TypeNotMatched, rec
		}

	case Untyped, TypeMatched, TypeNotMatched:
		if ctx.Cell == nil {
			return ValueUnwanted, rec
		}
		rec.Got = ctx.observed()
		if ctx.Cell.IsEmpty() {
			return EmptyValue, rec
		}
		return ValueGiven, rec

	case EmptyValue:
		rec.Value = models.NoValue
		return Complete, rec

	case ValueGiven:
		if ctx.Cell == nil {
			return ValueUnwanted, rec
		}
		if text, ok := ctx.Cell.Value.(string); ok {
			rec.Value = stripSeparators(text)
		} else {
			rec.Value = ctx.Cell.String()
		}
		return Complete, rec
	}
	return s, rec
}

var separators = strings.NewReplacer(",", "", ";", "")

func stripSeparators(s string) string {
	return separators.Replace(s)
}
