// Package format holds the small text helpers shared by the lookup and history code.
package format

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title upper-cases the first letter of each word and lower-cases the rest.
// A Caser is stateful, so one is built per call.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}

// Number prints v in its shortest exact form: 15 -> "15", 3.5 -> "3.5".
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
