// Package game owns the per-session state machine: turn accounting, phase
// transitions, and the routing between the suspect responder, the consistency
// filter, and the verdict judge. All transcript mutation happens here so the
// delegates stay stateless.
package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/myrjola/blackwood/internal/cases"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/filter"
	"github.com/myrjola/blackwood/internal/models"
	"github.com/myrjola/blackwood/internal/suspect"
	"github.com/myrjola/blackwood/internal/verdict"
)

var (
	ErrNoCaseAvailable    = errors.NewSentinel("no case available")
	ErrWrongPhase         = errors.NewSentinel("operation not valid in this phase")
	ErrTurnLimitExceeded  = errors.NewSentinel("turn limit exceeded")
	ErrAlreadyResolved    = errors.NewSentinel("session already resolved")
	ErrBackendUnavailable = errors.NewSentinel("suspect is unavailable, try again")
	ErrUnknownSuspect     = errors.NewSentinel("unknown suspect")
)

// DefaultMaxTurns is the hard cap on interrogation turns per session.
const DefaultMaxTurns = 30

// Session is the state of one game. It is mutated only by the Controller,
// which serializes Ask and Accuse calls on the session's lock so transcript
// writes never interleave.
type Session struct {
	ID       string
	Case     *models.Case
	Turns    int
	MaxTurns int
	Phase    models.Phase
	// Transcript is the ordered log of every exchange including the raw
	// candidate replies flagged as audit entries.
	Transcript []models.TranscriptEntry
	Verdict    *models.Verdict

	mu sync.Mutex
}

// Responder produces a candidate in-character reply.
type Responder interface {
	Reply(ctx context.Context, req suspect.Request) (string, error)
}

// Filter reviews a candidate reply before the player sees it.
type Filter interface {
	Review(ctx context.Context, req filter.Request) (filter.Result, error)
}

// Judge grades an accusation and writes the resolution narrative.
type Judge interface {
	Judge(ctx context.Context, req verdict.Request) (models.Verdict, error)
}

type Controller struct {
	logger    *slog.Logger
	cases     *cases.Repository
	responder Responder
	filter    Filter
	judge     Judge
	maxTurns  int
}

func NewController(
	repo *cases.Repository,
	responder Responder,
	replyFilter Filter,
	judge Judge,
	maxTurns int,
	logger *slog.Logger,
) *Controller {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Controller{
		logger:    logger.With("source", "game.Controller"),
		cases:     repo,
		responder: responder,
		filter:    replyFilter,
		judge:     judge,
		maxTurns:  maxTurns,
	}
}

// StartSession creates a new session in the Interrogation phase with the turn
// counter at zero. An empty caseID picks a random case.
func (c *Controller) StartSession(ctx context.Context, caseID string) (*Session, error) {
	var (
		chosen *models.Case
		err    error
	)
	if caseID == "" {
		if chosen, err = c.cases.Random(); err != nil {
			if errors.Is(err, cases.ErrEmpty) {
				return nil, ErrNoCaseAvailable
			}
			return nil, errors.Wrap(err, "pick random case")
		}
	} else {
		if chosen, err = c.cases.Get(caseID); err != nil {
			return nil, errors.Wrap(err, "load case", slog.String("case_id", caseID))
		}
	}

	session := &Session{
		ID:         uuid.NewString(),
		Case:       chosen,
		Turns:      0,
		MaxTurns:   c.maxTurns,
		Phase:      models.PhaseInterrogation,
		Transcript: nil,
		Verdict:    nil,
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "session started",
		slog.String("session_id", session.ID),
		slog.String("case_id", chosen.ID),
		slog.Int("max_turns", session.MaxTurns))
	return session, nil
}

// FilteredReply is what Ask returns to the caller: only the filtered text,
// never the raw candidate.
type FilteredReply struct {
	SuspectID   string
	SuspectName string
	Reply       string
	// Evasive reports that the filter replaced the reply with the canned
	// deflection.
	Evasive bool
	// Turn is the session turn counter after this question.
	Turn int
}

// Ask routes one question to a suspect. It consumes exactly one turn on
// success regardless of the filter's approve/reject outcome. A backend failure
// in the responder or the filter leaves the counter and transcript untouched
// so a transient fault never costs the player a turn.
func (c *Controller) Ask(ctx context.Context, session *Session, suspectID, question string) (FilteredReply, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Phase != models.PhaseInterrogation {
		return FilteredReply{}, errors.Wrap(ErrWrongPhase, "ask", slog.String("phase", string(session.Phase)))
	}
	if session.Turns >= session.MaxTurns {
		return FilteredReply{}, errors.Wrap(ErrTurnLimitExceeded, "ask", slog.Int("turns", session.Turns))
	}
	persona, ok := session.Case.Suspect(suspectID)
	if !ok {
		return FilteredReply{}, errors.Wrap(ErrUnknownSuspect, "ask", slog.String("suspect_id", suspectID))
	}

	history := models.Exchanges(session.Transcript, suspectID)

	raw, err := c.responder.Reply(ctx, suspect.Request{
		Case:     session.Case,
		Persona:  persona,
		History:  history,
		Question: question,
	})
	if err != nil {
		return FilteredReply{}, c.backendFailure(ctx, session, err, "suspect reply")
	}

	recentWindow := history
	if len(recentWindow) > 4 {
		recentWindow = recentWindow[len(recentWindow)-4:]
	}
	result, err := c.filter.Review(ctx, filter.Request{
		Case:         session.Case,
		Persona:      persona,
		Question:     question,
		Candidate:    raw,
		RecentWindow: recentWindow,
	})
	if err != nil {
		return FilteredReply{}, c.backendFailure(ctx, session, err, "filter review")
	}

	// The raw candidate goes to the transcript for audit; only the filtered
	// text is ever returned to the caller.
	session.Transcript = append(session.Transcript,
		models.TranscriptEntry{Speaker: models.SpeakerDetective, SuspectID: suspectID, Text: question},
		models.TranscriptEntry{Speaker: models.SpeakerSuspect, SuspectID: suspectID, Text: raw, Audit: true},
		models.TranscriptEntry{Speaker: models.SpeakerSuspect, SuspectID: suspectID, Text: result.Reply},
	)
	session.Turns++

	c.logger.LogAttrs(ctx, slog.LevelInfo, "turn complete",
		slog.String("session_id", session.ID),
		slog.String("suspect_id", suspectID),
		slog.Int("turn", session.Turns),
		slog.Bool("evasive", result.Rejected))

	return FilteredReply{
		SuspectID:   suspectID,
		SuspectName: persona.Name,
		Reply:       result.Reply,
		Evasive:     result.Rejected,
		Turn:        session.Turns,
	}, nil
}

// Accuse grades the accusation and resolves the session. Valid at most once; a
// judge backend failure leaves the phase unchanged so the accusation can be
// retried without losing progress.
func (c *Controller) Accuse(ctx context.Context, session *Session, accusation models.Accusation) (models.Verdict, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Phase == models.PhaseResolved {
		return models.Verdict{}, errors.Wrap(ErrAlreadyResolved, "accuse", slog.String("session_id", session.ID))
	}

	v, err := c.judge.Judge(ctx, verdict.Request{
		Case:       session.Case,
		Accusation: accusation,
		Transcript: session.Transcript,
		TurnsUsed:  session.Turns,
	})
	if err != nil {
		return models.Verdict{}, c.backendFailure(ctx, session, err, "judge accusation")
	}

	session.Phase = models.PhaseResolved
	session.Verdict = &v

	c.logger.LogAttrs(ctx, slog.LevelInfo, "session resolved",
		slog.String("session_id", session.ID),
		slog.Int("score", v.Score),
		slog.Bool("suspect_correct", v.SuspectCorrect))
	return v, nil
}

// Status is a read-only snapshot of a session.
type Status struct {
	ID         string
	CaseID     string
	CaseTitle  string
	Turns      int
	MaxTurns   int
	Phase      models.Phase
	Transcript []models.TranscriptEntry
	Verdict    *models.Verdict
}

// Status returns a copy of the session state safe to hand to a renderer.
func (c *Controller) Status(session *Session) Status {
	session.mu.Lock()
	defer session.mu.Unlock()

	transcript := make([]models.TranscriptEntry, len(session.Transcript))
	copy(transcript, session.Transcript)

	var v *models.Verdict
	if session.Verdict != nil {
		verdictCopy := *session.Verdict
		v = &verdictCopy
	}

	return Status{
		ID:         session.ID,
		CaseID:     session.Case.ID,
		CaseTitle:  session.Case.Title,
		Turns:      session.Turns,
		MaxTurns:   session.MaxTurns,
		Phase:      session.Phase,
		Transcript: transcript,
		Verdict:    v,
	}
}

func (c *Controller) backendFailure(ctx context.Context, session *Session, err error, msg string) error {
	c.logger.LogAttrs(ctx, slog.LevelWarn, "backend failure",
		slog.String("session_id", session.ID), errors.SlogError(err))
	return errors.Wrap(ErrBackendUnavailable, msg)
}
