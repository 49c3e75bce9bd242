// Package retention implements the spaced-repetition scheduler for the
// review queue. Each review grade adjusts the item's difficulty and memory
// stability and produces the next review interval.
package retention

import "fmt"

// Grade represents the learner's assessment of recall quality.
type Grade int

const (
	Again Grade = iota + 1 // Complete failure to recall.
	Hard                   // Recalled with significant difficulty.
	Good                   // Recalled with some effort.
	Easy                   // Recalled effortlessly.
)

var gradeNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// IsValid reports whether g is a valid grade (Again through Easy).
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// String returns the name of the grade. For invalid values it returns
// "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Lapsed reports whether the grade counts as a lapse (Again or Hard).
func (g Grade) Lapsed() bool {
	return g <= Hard
}
