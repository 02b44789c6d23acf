// Package detective implements the automated player: a planner that chooses
// the next interrogation question and a deducer that turns the full transcript
// into a structured accusation. Both see only player-visible information.
package detective

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
	plannerTemperature = 0.7
	// historyWindow caps the exchanges with the current suspect shown to the
	// planner; otherWindow caps the quoted exchanges per other suspect.
	historyWindow = 8
	otherWindow   = 4
)

// PlanRequest asks for the next question to put to one suspect.
type PlanRequest struct {
	Case          *models.Case
	SuspectID     string
	Transcript    []models.TranscriptEntry
	CoveredTopics []string
}

type Planner struct {
	completer ai.Completer
	model     string
	logger    *slog.Logger
}

func NewPlanner(completer ai.Completer, model string, logger *slog.Logger) *Planner {
	return &Planner{
		completer: completer,
		model:     model,
		logger:    logger.With("source", "detective.Planner"),
	}
}

// NextQuestion returns a single question ending with a question mark.
func (p *Planner) NextQuestion(ctx context.Context, req PlanRequest) (string, error) {
	persona, ok := req.Case.Suspect(req.SuspectID)
	if !ok {
		return "", errors.New("plan question for unknown suspect", slog.String("suspect_id", req.SuspectID))
	}

	text, err := p.completer.Complete(ctx, ai.Request{
		Model:       p.model,
		Temperature: plannerTemperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: plannerInstructions(req.Case)},
			{Role: ai.RoleUser, Content: plannerPrompt(req, persona)},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "plan next question", slog.String("suspect_id", req.SuspectID))
	}

	question := strings.Trim(strings.TrimSpace(text), `"'`)
	if question != "" && !strings.HasSuffix(question, "?") {
		question += "?"
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "planned question",
		slog.String("suspect_id", req.SuspectID), slog.String("question", question))
	return question, nil
}

func plannerInstructions(c *models.Case) string {
	roster := strings.Builder{}
	for _, persona := range c.Suspects {
		fmt.Fprintf(&roster, "  %s: %s\n", persona.ID, persona.Name)
	}

	return fmt.Sprintf(`You are a brilliant, methodical detective planning the next interrogation question.

CASE OVERVIEW:
  Victim  : %s
  Time    : %s
  Location: %s
  Cause   : %s

SUSPECTS IN THIS CASE:
%s
POSSIBLE WEAPONS : %s
POSSIBLE MOTIVES : %s

Generate ONE precise, open-ended question that has not already been asked to
this suspect, probes a gap in the evidence or tests a contradiction from
another suspect, and advances the investigation toward identifying killer,
weapon, and motive.

Return ONLY the question text: a single sentence ending with a question mark.`,
		c.Victim.Name, c.Victim.TimeOfDeath, c.Victim.Location, c.Victim.Cause,
		roster.String(), strings.Join(c.Weapons, ", "), strings.Join(c.Motives, ", "))
}

func plannerPrompt(req PlanRequest, persona *models.SuspectPersona) string {
	b := strings.Builder{}

	fmt.Fprintf(&b, "CURRENT SUSPECT:\n  Name   : %s\n  Manner : %s\n  Story  : %s\n\n",
		persona.Name, persona.Voice, persona.PublicStory)

	b.WriteString("PRIOR EXCHANGES WITH THIS SUSPECT:\n")
	prior := models.Exchanges(req.Transcript, req.SuspectID)
	if len(prior) > historyWindow {
		prior = prior[len(prior)-historyWindow:]
	}
	if len(prior) == 0 {
		b.WriteString("  (No exchanges yet.)\n")
	}
	for _, exchange := range prior {
		fmt.Fprintf(&b, "  Detective: %s\n  %s: %s\n", exchange.Question, persona.Name, exchange.Answer)
	}

	b.WriteString("\nCOVERED TOPICS (do NOT repeat these):\n")
	if len(req.CoveredTopics) == 0 {
		b.WriteString("  (None yet, start with foundational questions.)\n")
	}
	for _, topic := range req.CoveredTopics {
		fmt.Fprintf(&b, "  - %s\n", topic)
	}

	b.WriteString("\nINTEL FROM OTHER SUSPECTS:\n")
	intel := false
	for _, other := range req.Case.Suspects {
		if other.ID == req.SuspectID {
			continue
		}
		exchanges := models.Exchanges(req.Transcript, other.ID)
		if len(exchanges) == 0 {
			continue
		}
		intel = true
		if len(exchanges) > otherWindow {
			exchanges = exchanges[len(exchanges)-otherWindow:]
		}
		fmt.Fprintf(&b, "  [%s]\n", other.Name)
		for _, exchange := range exchanges {
			fmt.Fprintf(&b, "    Q: %s\n    A: %s\n", exchange.Question, truncate(exchange.Answer, 300))
		}
	}
	if !intel {
		b.WriteString("  (No other suspects questioned yet, ask foundational questions.)\n")
	}

	fmt.Fprintf(&b, "\nINVESTIGATION GAPS:\n%s\n", evidenceGaps(req.Case, prior))
	b.WriteString("\nNow output the single best next question to ask this suspect.")
	return b.String()
}

// evidenceGaps scans the suspect's answers for the player-visible evidence
// categories and lists what is still unknown. Keyword presence, not NLU; fast
// and deterministic is good enough to direct the planner's attention.
func evidenceGaps(c *models.Case, prior []models.Exchange) string {
	answers := strings.Builder{}
	for _, exchange := range prior {
		answers.WriteString(strings.ToLower(exchange.Answer))
		answers.WriteString(" ")
	}
	all := answers.String()

	var gaps []string
	if !containsAny(all, append([]string{"weapon"}, lowered(c.Weapons)...)) {
		gaps = append(gaps, "Weapon not discussed, probe for physical objects seen that night.")
	}
	if !containsAny(all, append([]string{"motive"}, lowered(c.Motives)...)) {
		gaps = append(gaps, "Motive unclear, explore grievances and who stood to gain.")
	}
	if !strings.Contains(all, strings.ToLower(c.Victim.Location)) {
		gaps = append(gaps, fmt.Sprintf("The scene (%s) not mentioned, ask if they were near it.", c.Victim.Location))
	}
	if !containsAny(all, []string{strings.ToLower(c.Victim.TimeOfDeath), "time"}) {
		gaps = append(gaps, fmt.Sprintf("Timeline around %s not established.", c.Victim.TimeOfDeath))
	}
	if len(gaps) == 0 {
		gaps = append(gaps, "All major gaps covered, probe for contradictions or emotional slips.")
	}

	b := strings.Builder{}
	for _, gap := range gaps {
		fmt.Fprintf(&b, "  - %s\n", gap)
	}
	return strings.TrimRight(b.String(), "\n")
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
