package play

import (
	"context"
	"fmt"

	"github.com/myrjola/blackwood/internal/detective"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/game"
	"github.com/spf13/cobra"
)

func init() {
	Auto.Flags().String("case", "", "case ID to play, random when empty")
	Auto.Flags().Int("questions", 12, "questions the AI detective asks before accusing")
}

var Auto = &cobra.Command{
	Use:     "auto",
	GroupID: "game",
	Short:   "Watch the AI detective play a case",
	Long: `Plays a full case without human input: a planner model chooses each
question, suspects answer through the usual filter, and a deduction model turns
the transcript into the final accusation.`,
	Run: func(cmd *cobra.Command, _ []string) {
		caseID, err := cmd.Flags().GetString("case")
		if err != nil {
			fail(err)
		}
		questions, err := cmd.Flags().GetInt("questions")
		if err != nil {
			fail(err)
		}

		e, err := newEngine()
		if err != nil {
			fail(err)
		}
		if err = autoplay(context.Background(), e, caseID, questions); err != nil {
			fail(err)
		}
	},
}

func autoplay(ctx context.Context, e *engine, caseID string, questions int) error {
	session, err := e.controller.StartSession(ctx, caseID)
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	printBriefing(session)

	planner := detective.NewPlanner(e.client, e.cfg.UtilityModel, e.logger)
	deducer := detective.NewDeducer(e.client, e.cfg.UtilityModel, e.logger)

	if questions > session.MaxTurns {
		questions = session.MaxTurns
	}

	var covered []string
	for turn := 0; turn < questions; turn++ {
		// Round-robin keeps every suspect in play.
		persona := session.Case.Suspects[turn%len(session.Case.Suspects)]

		status := e.controller.Status(session)
		question, err := planner.NextQuestion(ctx, detective.PlanRequest{
			Case:          session.Case,
			SuspectID:     persona.ID,
			Transcript:    status.Transcript,
			CoveredTopics: covered,
		})
		if err != nil {
			return errors.Wrap(err, "plan question")
		}
		covered = append(covered, fmt.Sprintf("%s: %s", persona.Name, question))

		reply, err := e.controller.Ask(ctx, session, persona.ID, question)
		if errors.Is(err, game.ErrBackendUnavailable) {
			// A flaky backend costs nothing; move on to the next question.
			continue
		}
		if err != nil {
			return errors.Wrap(err, "ask suspect")
		}
		fmt.Printf("Detective: %s\n%s: %s\n\n", question, reply.SuspectName, reply.Reply)
	}

	status := e.controller.Status(session)
	deduction, err := deducer.Deduce(ctx, detective.DeduceRequest{
		Case:       session.Case,
		Transcript: status.Transcript,
	})
	if err != nil {
		return errors.Wrap(err, "deduce accusation")
	}
	fmt.Printf("The detective accuses %s with the %s, motive %s (confidence: %s).\nReasoning: %s\n",
		deduction.Accusation.Suspect, deduction.Accusation.Weapon, deduction.Accusation.Motive,
		deduction.Confidence, deduction.Reasoning)

	verdict, err := e.controller.Accuse(ctx, session, deduction.Accusation)
	if err != nil {
		return errors.Wrap(err, "accuse")
	}
	printVerdict(verdict)
	return nil
}
