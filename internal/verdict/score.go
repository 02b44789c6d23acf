package verdict

import (
	"strings"

	"github.com/myrjola/blackwood/internal/models"
)

// Point weights per correct accusation field. The score is a pure function of
// the accusation and the case solution so identical accusations always grade
// identically.
const (
	suspectPoints = 40
	weaponPoints  = 30
	motivePoints  = 30

	// MaxScore is the score for a fully correct accusation.
	MaxScore = suspectPoints + weaponPoints + motivePoints
)

// Evaluate compares the accusation against the ground truth field by field.
// Matching is exact, case-insensitive, and whitespace-trimmed; the suspect
// field accepts either the killer's persona ID or display name.
func Evaluate(c *models.Case, accusation models.Accusation) (suspectCorrect, weaponCorrect, motiveCorrect bool) {
	suspectCorrect = matches(accusation.Suspect, c.Solution.SuspectID)
	if killer := c.Killer(); !suspectCorrect && killer != nil {
		suspectCorrect = matches(accusation.Suspect, killer.Name)
	}
	weaponCorrect = matches(accusation.Weapon, c.Solution.Weapon)
	motiveCorrect = matches(accusation.Motive, c.Solution.Motive)
	return suspectCorrect, weaponCorrect, motiveCorrect
}

// Score grades the correctness flags. Monotonic in the number of correct
// fields.
func Score(suspectCorrect, weaponCorrect, motiveCorrect bool) int {
	score := 0
	if suspectCorrect {
		score += suspectPoints
	}
	if weaponCorrect {
		score += weaponPoints
	}
	if motiveCorrect {
		score += motivePoints
	}
	return score
}

func matches(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}
