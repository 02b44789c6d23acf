// Package filter reviews candidate suspect replies before they reach the
// player. A trigger scan decides whether the rewrite model call happens at
// all; replies that still violate a redline after rewriting are replaced by an
// in-character evasive line so the player never sees raw refusal text.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/models"
)

const temperature = 0.2

// confessionFragments trigger a review regardless of case content.
var confessionFragments = []string{
	"i killed", "i murdered", "i hit", "i struck", "i poisoned",
	"killer", "murderer", "culprit", "did it", "guilty",
	"hid the", "covered up", "coached", "fake timeline",
}

// Request carries one candidate reply and the constraints to check it against.
type Request struct {
	Case    *models.Case
	Persona *models.SuspectPersona
	// Question is the detective's question that produced the candidate.
	Question string
	// Candidate is the raw reply from the responder.
	Candidate string
	// RecentWindow is the tail of the exchange history with this suspect.
	RecentWindow []models.Exchange
}

// Result is the filter's decision. Reply is always safe to show the player.
type Result struct {
	Reply string
	// Rewritten reports that the rewrite model call edited the candidate.
	Rewritten bool
	// Rejected reports that the candidate was replaced with the canned
	// evasive line because the rewrite still violated a redline.
	Rejected bool
}

type Filter struct {
	completer ai.Completer
	model     string
	logger    *slog.Logger
}

func New(completer ai.Completer, model string, logger *slog.Logger) *Filter {
	return &Filter{
		completer: completer,
		model:     model,
		logger:    logger.With("source", "filter.Filter"),
	}
}

// Review returns an approved reply. Clean candidates pass through without a
// model call; triggered ones go through one rewrite pass.
func (f *Filter) Review(ctx context.Context, req Request) (Result, error) {
	candidate := strings.TrimSpace(req.Candidate)

	if !triggered(req.Case, req.Persona, candidate) {
		f.logger.LogAttrs(ctx, slog.LevelDebug, "filter pass, no trigger keywords",
			slog.String("suspect_id", req.Persona.ID))
		return Result{Reply: candidate, Rewritten: false, Rejected: false}, nil
	}

	f.logger.LogAttrs(ctx, slog.LevelDebug, "filter triggered, reviewing reply",
		slog.String("suspect_id", req.Persona.ID))

	rewritten, err := f.rewrite(ctx, req)
	if err != nil {
		return Result{}, errors.Wrap(err, "review reply", slog.String("suspect_id", req.Persona.ID))
	}

	if rewritten == "" || violatesRedline(req.Case, req.Persona, rewritten) {
		f.logger.LogAttrs(ctx, slog.LevelInfo, "reply rejected, using evasive line",
			slog.String("suspect_id", req.Persona.ID))
		return Result{Reply: EvasiveLine(req.Persona), Rewritten: false, Rejected: true}, nil
	}

	return Result{Reply: rewritten, Rewritten: rewritten != candidate, Rejected: false}, nil
}

func (f *Filter) rewrite(ctx context.Context, req Request) (string, error) {
	prompt := strings.Builder{}
	fmt.Fprintf(&prompt, "PLAYER QUESTION:\n%s\n\n", req.Question)
	fmt.Fprintf(&prompt, "SUSPECT PROFILE:\n  name: %s\n  role: %s\n  persona: %s\n  public story: %s\n",
		req.Persona.Name, req.Persona.Role, req.Persona.Voice, req.Persona.PublicStory)
	prompt.WriteString("  hard redlines:\n")
	for _, redline := range req.Persona.Redlines {
		fmt.Fprintf(&prompt, "    - %s\n", redline)
	}
	if len(req.RecentWindow) > 0 {
		prompt.WriteString("\nRECENT EXCHANGES:\n")
		for _, exchange := range req.RecentWindow {
			fmt.Fprintf(&prompt, "  Q: %s\n  A: %s\n", exchange.Question, exchange.Answer)
		}
	}
	fmt.Fprintf(&prompt, "\nRAW ANSWER FROM SUSPECT:\n%q\n\nOutput ONLY the final, safe, in-character answer.", req.Candidate)

	text, err := f.completer.Complete(ctx, ai.Request{
		Model:       f.model,
		Temperature: temperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: reviewInstructions(req.Case)},
			{Role: ai.RoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func reviewInstructions(c *models.Case) string {
	redlines := strings.Builder{}
	for _, redline := range c.Redlines {
		fmt.Fprintf(&redlines, "  - %s\n", redline)
	}

	return fmt.Sprintf(`You are the consistency and revision layer in a murder-mystery game.

You receive the player's question, a suspect's raw answer, the suspect's
profile, and the canonical case redlines.

YOUR JOB:
1. Scan the raw answer for leaks: explicit confessions, direct mentions of the
   true culprit, exact weapon, or hidden timeline, and violations of the
   suspect's personal redline list.
2. If the answer is clean, return it unchanged.
3. If the answer leaks a secret, rewrite it: remove or soften the offending
   phrase, replace confessions with denial, deflection, ambiguity, or partial
   truth, and preserve the suspect's tone and emotional flavour exactly.
4. Never break immersion: do NOT mention prompts, redlines, "the system", or
   that you are revising anything. Output must sound like a natural
   in-character reply from the suspect.

CASE-LEVEL REDLINES (must never appear plainly in any reply):
%s
OUTPUT FORMAT:
Return ONLY the final in-character reply that the player will see.
Do NOT add explanations, labels, prefixes, or analysis.`, redlines.String())
}

// triggered reports whether candidate contains anything worth a review call:
// redline phrases, the solution's weapon or killer name, or a generic
// confession fragment.
func triggered(c *models.Case, persona *models.SuspectPersona, candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, keyword := range triggerKeywords(c, persona) {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func triggerKeywords(c *models.Case, persona *models.SuspectPersona) []string {
	keywords := make([]string, 0, len(confessionFragments)+len(c.Redlines)+len(persona.Redlines)+4)
	keywords = append(keywords, confessionFragments...)
	for _, redline := range c.Redlines {
		keywords = append(keywords, strings.ToLower(redline))
	}
	for _, redline := range persona.Redlines {
		keywords = append(keywords, strings.ToLower(redline))
	}
	keywords = append(keywords, strings.ToLower(c.Solution.Weapon))
	if killer := c.Killer(); killer != nil {
		// Each name part triggers on its own so a bare first name is caught.
		keywords = append(keywords, strings.Fields(strings.ToLower(killer.Name))...)
	}
	return keywords
}

// violatesRedline reports whether text still contains a redline phrase
// verbatim, ignoring case.
func violatesRedline(c *models.Case, persona *models.SuspectPersona, text string) bool {
	lower := strings.ToLower(text)
	for _, redline := range c.Redlines {
		if strings.Contains(lower, strings.ToLower(redline)) {
			return true
		}
	}
	for _, redline := range persona.Redlines {
		if strings.Contains(lower, strings.ToLower(redline)) {
			return true
		}
	}
	return false
}

// EvasiveLine is the canned in-character deflection used when a reply cannot
// be salvaged. Deterministic so rejection never depends on another model call.
func EvasiveLine(persona *models.SuspectPersona) string {
	switch persona.Role {
	case models.RoleKiller:
		return fmt.Sprintf(
			"%s straightens up and meets your eyes. \"I have told you what I know, detective. If you have an accusation to make, make it.\"",
			persona.Name)
	case models.RoleAccomplice:
		return fmt.Sprintf(
			"%s gives a thin smile. \"You do ask colourful questions. I'm afraid I have nothing useful to add to that one.\"",
			persona.Name)
	case models.RoleWitness:
		return fmt.Sprintf(
			"%s looks away and wrings their hands. \"I... I really couldn't say. I don't want any trouble, detective.\"",
			persona.Name)
	}
	return fmt.Sprintf("%s says nothing and looks away.", persona.Name)
}
