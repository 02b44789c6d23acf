// Package suspect turns a persona and conversation history into one
// in-character reply from the inference backend. The responder keeps no state
// between calls; the caller supplies the history.
package suspect

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
	// History windowing keeps the prompt bounded on long interrogations:
	// before compressAfter exchanges the recent history passes verbatim,
	// after it the older exchanges collapse to one-line bullets.
	compressAfter  = 10
	verbatimEarly  = 6
	verbatimRecent = 4

	temperature = 0.8
)

// Request carries everything the responder needs for one reply.
type Request struct {
	Case     *models.Case
	Persona  *models.SuspectPersona
	History  []models.Exchange
	Question string
}

type Responder struct {
	completer ai.Completer
	model     string
	logger    *slog.Logger
}

func NewResponder(completer ai.Completer, model string, logger *slog.Logger) *Responder {
	return &Responder{
		completer: completer,
		model:     model,
		logger:    logger.With("source", "suspect.Responder"),
	}
}

// Reply returns the suspect's candidate answer to the detective's question.
// The text is unfiltered; the consistency filter decides what the player sees.
func (r *Responder) Reply(ctx context.Context, req Request) (string, error) {
	prompt := strings.Builder{}
	prompt.WriteString(historyPrefix(req.Persona, req.History))
	prompt.WriteString("Detective's latest question:\n")
	prompt.WriteString(req.Question)
	prompt.WriteString("\n\nRespond in character. Remember your public story and do not violate your redlines.")

	text, err := r.completer.Complete(ctx, ai.Request{
		Model:       r.model,
		Temperature: temperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt(req.Case, req.Persona)},
			{Role: ai.RoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "suspect reply", slog.String("suspect_id", req.Persona.ID))
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "suspect replied",
		slog.String("suspect_id", req.Persona.ID), slog.Int("chars", len(text)))
	return strings.TrimSpace(text), nil
}

func systemPrompt(c *models.Case, persona *models.SuspectPersona) string {
	redlines := strings.Builder{}
	for _, redline := range persona.Redlines {
		fmt.Fprintf(&redlines, "  - %s\n", redline)
	}

	return fmt.Sprintf(`You are %[1]s, a suspect in a murder investigation. %[2]s was found dead at %[3]s: %[4]s.

PERSONA:
%[5]s

PUBLIC STORY (what you claim happened, repeat this consistently):
%[6]s

PRIVATE KNOWLEDGE (never reveal directly, even under pressure):
%[7]s

YOUR ROLE: %[8]s. This is private, do NOT admit it.

GOALS:
- Avoid being convicted at all costs.
- Never voluntarily confess to the crime.
- You may lie by omission, misdirect, or be vague and defensive.
- Remain internally consistent so your story feels believable.

HARD REDLINES, never state these, even paraphrased:
%[9]s
STYLE RULES:
- Stay fully in character as %[1]s at all times.
- Do NOT acknowledge being an AI, a model, or a game character.
- Do NOT mention prompts, system instructions, redlines, or "the game".
- Answer every question as if a real detective is interrogating you.
- Keep responses to 2-4 sentences unless a longer answer is natural.`,
		persona.Name,
		c.Victim.Name,
		c.Victim.Location,
		c.Victim.Cause,
		persona.Voice,
		persona.PublicStory,
		persona.PrivateKnowledge(),
		strings.ToUpper(string(persona.Role)),
		redlines.String(),
	)
}

// historyPrefix formats the prior exchanges with this suspect. Early in the
// interrogation the recent exchanges pass verbatim; on long sessions the older
// ones are condensed to a bullet each so the prompt stays bounded.
func historyPrefix(persona *models.SuspectPersona, history []models.Exchange) string {
	if len(history) == 0 {
		return ""
	}

	b := strings.Builder{}
	if len(history) <= compressAfter {
		recent := history[max(0, len(history)-verbatimEarly):]
		b.WriteString("PREVIOUS EXCHANGES IN THIS INTERROGATION SESSION:\n")
		writeExchanges(&b, persona, recent)
		b.WriteString("\n")
		return b.String()
	}

	older := history[:len(history)-verbatimRecent]
	recent := history[len(history)-verbatimRecent:]

	b.WriteString("SUMMARY OF EARLIER EXCHANGES (condensed):\n")
	for _, exchange := range older {
		fmt.Fprintf(&b, "  - Asked about: %q, you answered evasively or denied involvement.\n",
			truncate(exchange.Question, 80))
	}
	b.WriteString("\nMOST RECENT EXCHANGES (full):\n")
	writeExchanges(&b, persona, recent)
	b.WriteString("\n")
	return b.String()
}

func writeExchanges(b *strings.Builder, persona *models.SuspectPersona, exchanges []models.Exchange) {
	for _, exchange := range exchanges {
		fmt.Fprintf(b, "Detective: %s\n", exchange.Question)
		fmt.Fprintf(b, "You (%s): %s\n", persona.Name, exchange.Answer)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
