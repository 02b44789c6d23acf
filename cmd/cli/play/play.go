package play

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/game"
	"github.com/myrjola/blackwood/internal/models"
	"github.com/spf13/cobra"
)

func init() {
	Play.Flags().String("case", "", "case ID to play, random when empty")
}

var Play = &cobra.Command{
	Use:     "play",
	GroupID: "game",
	Short:   "Interrogate suspects interactively",
	Long: `Starts an interrogation session in the terminal.

Type a question to put it to the current suspect. Commands:
  /suspects          list the suspects
  /switch <id>       question a different suspect
  /accuse            make your final accusation
  /status            show turns used and the transcript length
  /quit              abandon the case`,
	Run: func(cmd *cobra.Command, _ []string) {
		caseID, err := cmd.Flags().GetString("case")
		if err != nil {
			fail(err)
		}

		e, err := newEngine()
		if err != nil {
			fail(err)
		}

		ctx := context.Background()
		session, err := e.controller.StartSession(ctx, caseID)
		if err != nil {
			fail(err)
		}

		printBriefing(session)
		runInterrogation(ctx, e, session, bufio.NewScanner(os.Stdin))
	},
}

func printBriefing(session *game.Session) {
	c := session.Case
	fmt.Printf("\n=== %s ===\n\n", c.Title)
	fmt.Printf("Victim: %s, found in the %s around %s.\nCause of death: %s.\n\n",
		c.Victim.Name, c.Victim.Location, c.Victim.TimeOfDeath, c.Victim.Cause)
	fmt.Println("Suspects:")
	for _, persona := range c.Suspects {
		fmt.Printf("  %-4s %s - %s\n", persona.ID, persona.Name, persona.PublicStory)
	}
	fmt.Printf("\nPossible weapons: %s\n", strings.Join(c.Weapons, ", "))
	fmt.Printf("Possible motives: %s\n", strings.Join(c.Motives, ", "))
	fmt.Printf("\nYou have %d questions. You are speaking with %s.\n\n",
		session.MaxTurns, c.Suspects[0].Name)
}

func runInterrogation(ctx context.Context, e *engine, session *game.Session, scanner *bufio.Scanner) {
	current := session.Case.Suspects[0].ID

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			fmt.Println("The case goes cold.")
			return
		case line == "/suspects":
			for _, persona := range session.Case.Suspects {
				marker := " "
				if persona.ID == current {
					marker = "*"
				}
				fmt.Printf("%s %-4s %s\n", marker, persona.ID, persona.Name)
			}
		case strings.HasPrefix(line, "/switch"):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/switch"))
			persona, ok := session.Case.Suspect(id)
			if !ok {
				fmt.Printf("No suspect %q. Use /suspects to list them.\n", id)
				continue
			}
			current = persona.ID
			fmt.Printf("You are now speaking with %s.\n", persona.Name)
		case line == "/status":
			status := e.controller.Status(session)
			fmt.Printf("Case %s, phase %s, %d/%d questions used.\n",
				status.CaseTitle, status.Phase, status.Turns, status.MaxTurns)
		case line == "/accuse":
			if accuse(ctx, e, session, scanner) {
				return
			}
		default:
			ask(ctx, e, session, current, line)
		}
	}
}

func ask(ctx context.Context, e *engine, session *game.Session, suspectID, question string) {
	reply, err := e.controller.Ask(ctx, session, suspectID, question)
	switch {
	case errors.Is(err, game.ErrTurnLimitExceeded):
		fmt.Println("You are out of questions. Use /accuse to close the case.")
		return
	case errors.Is(err, game.ErrBackendUnavailable):
		fmt.Println("The suspect is unavailable, try again.")
		return
	case err != nil:
		fail(err)
	}
	fmt.Printf("\n%s: %s\n\n[%d/%d questions used]\n", reply.SuspectName, reply.Reply, reply.Turn, session.MaxTurns)
}

// accuse collects the accusation parts and resolves the case. Returns true
// when the session resolved.
func accuse(ctx context.Context, e *engine, session *game.Session, scanner *bufio.Scanner) bool {
	prompt := func(label string) (string, bool) {
		fmt.Printf("%s: ", label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	accusedSuspect, ok := prompt("Accused suspect")
	if !ok {
		return false
	}
	weapon, ok := prompt("Weapon")
	if !ok {
		return false
	}
	motive, ok := prompt("Motive")
	if !ok {
		return false
	}

	verdict, err := e.controller.Accuse(ctx, session, models.Accusation{
		Suspect: accusedSuspect,
		Weapon:  weapon,
		Motive:  motive,
	})
	switch {
	case errors.Is(err, game.ErrBackendUnavailable):
		fmt.Println("The judge is unavailable, try the accusation again.")
		return false
	case err != nil:
		fail(err)
	}

	printVerdict(verdict)
	return true
}

func printVerdict(v models.Verdict) {
	check := func(correct bool) string {
		if correct {
			return "correct"
		}
		return "wrong"
	}
	fmt.Printf("\nSuspect %s, weapon %s, motive %s.\nScore: %d/100\n\n%s\n",
		check(v.SuspectCorrect), check(v.WeaponCorrect), check(v.MotiveCorrect), v.Score, v.Narrative)
}
