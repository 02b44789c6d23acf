// Package verdict grades accusations. The correctness flags and score are
// deterministic; only the narrative resolution comes from the backend.
package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/models"
)

const (
	temperature = 0.6
	// highlightsPerSuspect caps the exchanges quoted to the judge per suspect.
	highlightsPerSuspect = 5
	answerTruncateLimit  = 200
)

// Request carries everything the judge needs to resolve one accusation.
type Request struct {
	Case       *models.Case
	Accusation models.Accusation
	Transcript []models.TranscriptEntry
	TurnsUsed  int
}

type Judge struct {
	completer ai.Completer
	model     string
	logger    *slog.Logger
}

func NewJudge(completer ai.Completer, model string, logger *slog.Logger) *Judge {
	return &Judge{
		completer: completer,
		model:     model,
		logger:    logger.With("source", "verdict.Judge"),
	}
}

// Judge grades the accusation and produces the case-resolution narrative. On a
// backend failure no verdict is produced, the accusation can be resubmitted.
func (j *Judge) Judge(ctx context.Context, req Request) (models.Verdict, error) {
	suspectCorrect, weaponCorrect, motiveCorrect := Evaluate(req.Case, req.Accusation)
	score := Score(suspectCorrect, weaponCorrect, motiveCorrect)

	j.logger.LogAttrs(ctx, slog.LevelInfo, "accusation graded",
		slog.String("case_id", req.Case.ID),
		slog.Bool("suspect_correct", suspectCorrect),
		slog.Bool("weapon_correct", weaponCorrect),
		slog.Bool("motive_correct", motiveCorrect),
		slog.Int("score", score))

	narrative, err := j.completer.Complete(ctx, ai.Request{
		Model:       j.model,
		Temperature: temperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: judgeInstructions},
			{Role: ai.RoleUser, Content: resolutionPrompt(req, suspectCorrect, weaponCorrect, motiveCorrect, score)},
		},
	})
	if err != nil {
		return models.Verdict{}, errors.Wrap(err, "judge narrative", slog.String("case_id", req.Case.ID))
	}

	return models.Verdict{
		SuspectCorrect: suspectCorrect,
		WeaponCorrect:  weaponCorrect,
		MotiveCorrect:  motiveCorrect,
		Score:          score,
		Narrative:      strings.TrimSpace(narrative),
	}, nil
}

const judgeInstructions = `You are the case resolution judge for a murder mystery game.

You receive the player's accusation, the true solution, pre-computed
correctness flags for each component, a computed numeric score out of 100,
interrogation highlights, and the suspect profiles with their secret roles.

Produce a compelling, spoiler-rich case resolution that:
1. Announces the verdict clearly (CASE SOLVED / CASE UNSOLVED).
2. Breaks down what was correct and what was wrong, component by component.
3. Reveals the full truth of what happened in narrative form.
4. Comments on key interrogation moments the player missed or caught.

Do not change the score or the correctness flags; they are final.
Return only the resolution text.`

func resolutionPrompt(req Request, suspectCorrect, weaponCorrect, motiveCorrect bool, score int) string {
	c := req.Case
	b := strings.Builder{}

	accusedName := req.Accusation.Suspect
	if persona, ok := c.Suspect(req.Accusation.Suspect); ok {
		accusedName = persona.Name
	}
	killerName := req.Accusation.Suspect
	if killer := c.Killer(); killer != nil {
		killerName = killer.Name
	}

	fmt.Fprintf(&b, "PLAYER'S ACCUSATION:\n  Suspect : %s\n  Weapon  : %s\n  Motive  : %s\n\n",
		accusedName, req.Accusation.Weapon, req.Accusation.Motive)
	fmt.Fprintf(&b, "THE TRUTH:\n  Culprit : %s\n  Weapon  : %s\n  Motive  : %s\n  Timeline:\n",
		killerName, c.Solution.Weapon, c.Solution.Motive)
	for _, event := range c.Solution.Timeline {
		fmt.Fprintf(&b, "    %s\n", event)
	}
	fmt.Fprintf(&b, "\nCORRECTNESS:\n  Suspect correct : %t\n  Weapon correct  : %t\n  Motive correct  : %t\n\n",
		suspectCorrect, weaponCorrect, motiveCorrect)
	fmt.Fprintf(&b, "COMPUTED SCORE: %d/%d\n\n", score, MaxScore)
	fmt.Fprintf(&b, "GAME STATISTICS:\n  Total turns used : %d\n\n", req.TurnsUsed)

	b.WriteString("SUSPECT PROFILES:\n")
	for _, persona := range c.Suspects {
		marker := ""
		if persona.ID == c.Solution.SuspectID {
			marker = " <- TRUE CULPRIT"
		}
		fmt.Fprintf(&b, "  %s: %s (%s)%s\n", persona.ID, persona.Name, strings.ToUpper(string(persona.Role)), marker)
		fmt.Fprintf(&b, "      Public story : %s\n", persona.PublicStory)
		fmt.Fprintf(&b, "      Hidden truth : %s\n", persona.PrivateKnowledge())
	}

	fmt.Fprintf(&b, "\nINTERROGATION HIGHLIGHTS:\n%s\n\nProduce the full case resolution now.",
		highlights(c, req.Transcript))
	return b.String()
}

// highlights quotes the last few exchanges per suspect with answers truncated
// so the prompt stays a manageable size.
func highlights(c *models.Case, transcript []models.TranscriptEntry) string {
	b := strings.Builder{}
	for _, persona := range c.Suspects {
		exchanges := models.Exchanges(transcript, persona.ID)
		if len(exchanges) == 0 {
			continue
		}
		fmt.Fprintf(&b, "--- %s (%d exchanges) ---\n", persona.Name, len(exchanges))
		if len(exchanges) > highlightsPerSuspect {
			exchanges = exchanges[len(exchanges)-highlightsPerSuspect:]
		}
		for _, exchange := range exchanges {
			fmt.Fprintf(&b, "  Q: %s\n", exchange.Question)
			answer := exchange.Answer
			if len(answer) > answerTruncateLimit {
				answer = answer[:answerTruncateLimit] + "..."
			}
			fmt.Fprintf(&b, "  A: %s\n", answer)
		}
	}
	if b.Len() == 0 {
		return "No interrogations recorded."
	}
	return b.String()
}
