package detective

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/models"
)

// ErrNoDeduction is returned when the model output cannot be parsed into a
// valid accusation for the case.
var ErrNoDeduction = errors.NewSentinel("no valid deduction in model output")

const deducerTemperature = 0.3

// jsonBlock matches a fenced ```json block or, failing that, the first bare
// JSON object in the output.
var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)\{.*\}`)
)

// DeduceRequest carries everything the deducer may see: the public case facts
// and the filtered transcript. Never the solution.
type DeduceRequest struct {
	Case       *models.Case
	Transcript []models.TranscriptEntry
}

// Deduction is a parsed, case-validated accusation plus the model's reasoning.
type Deduction struct {
	Accusation models.Accusation
	Reasoning  string
	Confidence string
}

type Deducer struct {
	completer ai.Completer
	model     string
	logger    *slog.Logger
}

func NewDeducer(completer ai.Completer, model string, logger *slog.Logger) *Deducer {
	return &Deducer{
		completer: completer,
		model:     model,
		logger:    logger.With("source", "detective.Deducer"),
	}
}

// Deduce reviews the transcript and commits to an accusation.
func (d *Deducer) Deduce(ctx context.Context, req DeduceRequest) (Deduction, error) {
	text, err := d.completer.Complete(ctx, ai.Request{
		Model:       d.model,
		Temperature: deducerTemperature,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: deducerInstructions(req.Case)},
			{Role: ai.RoleUser, Content: deducerPrompt(req)},
		},
	})
	if err != nil {
		return Deduction{}, errors.Wrap(err, "deduce accusation")
	}

	deduction, err := parseDeduction(req.Case, text)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "discarding unusable deduction",
			slog.String("output", truncate(text, 500)), errors.SlogError(err))
		return Deduction{}, err
	}
	return deduction, nil
}

func deducerInstructions(c *models.Case) string {
	names := make([]string, len(c.Suspects))
	for i, persona := range c.Suspects {
		names[i] = fmt.Sprintf("%s (%s)", persona.ID, persona.Name)
	}

	return fmt.Sprintf(`You are a master detective delivering your final deduction.

You must choose exactly one option from each list:
  SUSPECTS: %s
  WEAPONS : %s
  MOTIVES : %s

Respond with a JSON object and nothing else:

{
  "suspect": "<suspect id from the list>",
  "weapon": "<weapon from the list>",
  "motive": "<motive from the list>",
  "confidence": "<high|medium|low>",
  "reasoning": "<two or three sentences citing transcript evidence>"
}`,
		strings.Join(names, ", "), strings.Join(c.Weapons, ", "), strings.Join(c.Motives, ", "))
}

func deducerPrompt(req DeduceRequest) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "CASE: %s. Victim %s, found in the %s around %s, cause: %s.\n\nFULL INTERROGATION TRANSCRIPT:\n",
		req.Case.Title, req.Case.Victim.Name, req.Case.Victim.Location,
		req.Case.Victim.TimeOfDeath, req.Case.Victim.Cause)

	for _, persona := range req.Case.Suspects {
		exchanges := models.Exchanges(req.Transcript, persona.ID)
		if len(exchanges) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n=== %s ===\n", persona.Name)
		for _, exchange := range exchanges {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", exchange.Question, exchange.Answer)
		}
	}

	b.WriteString("\nWeigh contradictions, evasions, and corroborated facts. Output your accusation as JSON.")
	return b.String()
}

func parseDeduction(c *models.Case, text string) (Deduction, error) {
	raw := ""
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := bareJSON.FindString(text); m != "" {
		raw = m
	}
	if raw == "" {
		return Deduction{}, errors.Wrap(ErrNoDeduction, "no JSON object in output")
	}

	var parsed struct {
		Suspect    string `json:"suspect"`
		Weapon     string `json:"weapon"`
		Motive     string `json:"motive"`
		Confidence string `json:"confidence"`
		Reasoning  string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Deduction{}, errors.Wrap(errors.Join(ErrNoDeduction, err), "unmarshal deduction")
	}

	suspect, ok := matchSuspect(c, parsed.Suspect)
	if !ok {
		return Deduction{}, errors.Wrap(ErrNoDeduction, "suspect not in case",
			slog.String("suspect", parsed.Suspect))
	}
	weapon, ok := matchOption(c.Weapons, parsed.Weapon)
	if !ok {
		return Deduction{}, errors.Wrap(ErrNoDeduction, "weapon not in case",
			slog.String("weapon", parsed.Weapon))
	}
	motive, ok := matchOption(c.Motives, parsed.Motive)
	if !ok {
		return Deduction{}, errors.Wrap(ErrNoDeduction, "motive not in case",
			slog.String("motive", parsed.Motive))
	}

	return Deduction{
		Accusation: models.Accusation{Suspect: suspect, Weapon: weapon, Motive: motive},
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
		Confidence: strings.ToLower(strings.TrimSpace(parsed.Confidence)),
	}, nil
}

func matchSuspect(c *models.Case, value string) (string, bool) {
	needle := strings.TrimSpace(value)
	for _, persona := range c.Suspects {
		if strings.EqualFold(persona.ID, needle) || strings.EqualFold(persona.Name, needle) {
			return persona.ID, true
		}
	}
	return "", false
}

func matchOption(options []string, value string) (string, bool) {
	needle := strings.TrimSpace(value)
	for _, option := range options {
		if strings.EqualFold(option, needle) {
			return option, true
		}
	}
	return "", false
}
