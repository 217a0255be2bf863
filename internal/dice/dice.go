// Package dice evaluates standard dice notation ("2d6", "1d20+3") for
// the {{roll}} macro.
package dice

import (
	"fmt"
	"regexp"

	"github.com/justinian/dice"
)

// digitsOnly matches a bare number, the shorthand for one die with that
// many sides.
var digitsOnly = regexp.MustCompile(`^\d+$`)

// Evaluate rolls a dice-notation formula and returns the total. A
// purely numeric formula N is treated as 1dN. Invalid notation returns
// an error rather than a result.
func Evaluate(formula string) (int, error) {
	if digitsOnly.MatchString(formula) {
		formula = "1d" + formula
	}

	result, _, err := dice.Roll(formula)
	if err != nil {
		return 0, fmt.Errorf("invalid dice formula %q: %w", formula, err)
	}
	return result.Int(), nil
}
