package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/cases"
	"github.com/myrjola/blackwood/internal/filter"
	"github.com/myrjola/blackwood/internal/models"
	"github.com/myrjola/blackwood/internal/suspect"
	"github.com/myrjola/blackwood/internal/testhelpers"
	"github.com/myrjola/blackwood/internal/verdict"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubResponder) Reply(_ context.Context, req suspect.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls++
	if s.reply != "" {
		return s.reply, nil
	}
	return fmt.Sprintf("raw answer %d from %s", s.calls, req.Persona.Name), nil
}

type stubFilter struct {
	err    error
	reject bool
}

func (s *stubFilter) Review(_ context.Context, req filter.Request) (filter.Result, error) {
	if s.err != nil {
		return filter.Result{}, s.err
	}
	if s.reject {
		return filter.Result{Reply: filter.EvasiveLine(req.Persona), Rejected: true}, nil
	}
	return filter.Result{Reply: "filtered: " + req.Candidate}, nil
}

type stubJudge struct {
	err error
}

func (s *stubJudge) Judge(_ context.Context, req verdict.Request) (models.Verdict, error) {
	if s.err != nil {
		return models.Verdict{}, s.err
	}
	suspectOK, weaponOK, motiveOK := verdict.Evaluate(req.Case, req.Accusation)
	return models.Verdict{
		SuspectCorrect: suspectOK,
		WeaponCorrect:  weaponOK,
		MotiveCorrect:  motiveOK,
		Score:          verdict.Score(suspectOK, weaponOK, motiveOK),
		Narrative:      "the case is closed",
	}, nil
}

type fixture struct {
	controller *Controller
	responder  *stubResponder
	filter     *stubFilter
	judge      *stubJudge
	repo       *cases.Repository
}

func newFixture(t *testing.T, maxTurns int) *fixture {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	repo, err := cases.NewRepository(logger)
	require.NoError(t, err)
	responder := &stubResponder{}
	replyFilter := &stubFilter{}
	judge := &stubJudge{}
	return &fixture{
		controller: NewController(repo, responder, replyFilter, judge, maxTurns, logger),
		responder:  responder,
		filter:     replyFilter,
		judge:      judge,
		repo:       repo,
	}
}

func TestStartSession(t *testing.T) {
	f := newFixture(t, 0)

	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.Equal(t, "blackwood-mansion", session.Case.ID)
	require.Equal(t, 0, session.Turns)
	require.Equal(t, DefaultMaxTurns, session.MaxTurns)
	require.Equal(t, models.PhaseInterrogation, session.Phase)
	require.Empty(t, session.Transcript)

	session, err = f.controller.StartSession(context.Background(), "blackwood-mansion")
	require.NoError(t, err)
	require.Equal(t, "blackwood-mansion", session.Case.ID)

	_, err = f.controller.StartSession(context.Background(), "no-such-case")
	require.ErrorIs(t, err, cases.ErrNotFound)
}

func TestStartSessionEmptyRepository(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	controller := NewController(cases.NewEmptyRepository(logger), &stubResponder{}, &stubFilter{}, &stubJudge{}, 0, logger)

	_, err := controller.StartSession(context.Background(), "")
	require.ErrorIs(t, err, ErrNoCaseAvailable)
}

func TestAskConsumesOneTurnAndAuditsTranscript(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	reply, err := f.controller.Ask(context.Background(), session, "s1", "Where were you at 23:15?")
	require.NoError(t, err)
	require.Equal(t, 1, reply.Turn)
	require.Equal(t, "Lydia Blackwood", reply.SuspectName)
	require.Equal(t, "filtered: raw answer 1 from Lydia Blackwood", reply.Reply)
	require.False(t, reply.Evasive)

	require.Equal(t, 1, session.Turns)
	require.Len(t, session.Transcript, 3)
	require.Equal(t, models.SpeakerDetective, session.Transcript[0].Speaker)
	require.Equal(t, "Where were you at 23:15?", session.Transcript[0].Text)
	require.True(t, session.Transcript[1].Audit)
	require.Equal(t, "raw answer 1 from Lydia Blackwood", session.Transcript[1].Text)
	require.False(t, session.Transcript[2].Audit)
	require.Equal(t, reply.Reply, session.Transcript[2].Text)
}

func TestAskRejectedReplyStillConsumesTurn(t *testing.T) {
	f := newFixture(t, 0)
	f.filter.reject = true
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	reply, err := f.controller.Ask(context.Background(), session, "s3", "What did you see?")
	require.NoError(t, err)
	require.True(t, reply.Evasive)
	require.Contains(t, reply.Reply, "Eleanor Wright")
	require.Equal(t, 1, session.Turns)
}

func TestAskUnknownSuspect(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	_, err = f.controller.Ask(context.Background(), session, "s9", "Hello?")
	require.ErrorIs(t, err, ErrUnknownSuspect)
	require.Equal(t, 0, session.Turns)
	require.Empty(t, session.Transcript)
}

func TestAskTurnLimit(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	// Thirty consecutive asks increment the counter 0 -> 30.
	for i := 1; i <= DefaultMaxTurns; i++ {
		reply, askErr := f.controller.Ask(context.Background(), session, "s1", fmt.Sprintf("question %d", i))
		require.NoError(t, askErr)
		require.Equal(t, i, reply.Turn)
	}
	require.Equal(t, DefaultMaxTurns, session.Turns)
	transcriptLen := len(session.Transcript)

	// The 31st always fails and mutates nothing.
	_, err = f.controller.Ask(context.Background(), session, "s1", "one more")
	require.ErrorIs(t, err, ErrTurnLimitExceeded)
	require.Equal(t, DefaultMaxTurns, session.Turns)
	require.Len(t, session.Transcript, transcriptLen)
}

func TestAskBackendFailureDoesNotConsumeTurn(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name:  "responder failure",
			setup: func(f *fixture) { f.responder.err = ai.ErrBackendUnavailable },
		},
		{
			name:  "filter failure",
			setup: func(f *fixture) { f.filter.err = ai.ErrBackendUnavailable },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			session, err := f.controller.StartSession(context.Background(), "")
			require.NoError(t, err)
			tt.setup(f)

			_, err = f.controller.Ask(context.Background(), session, "s1", "Anyone there?")
			require.ErrorIs(t, err, ErrBackendUnavailable)
			require.Equal(t, 0, session.Turns)
			require.Empty(t, session.Transcript)
			require.Equal(t, models.PhaseInterrogation, session.Phase)
		})
	}
}

func TestAccuseResolvesSessionOnce(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	v, err := f.controller.Accuse(context.Background(), session, models.Accusation{
		Suspect: "Lydia Blackwood",
		Weapon:  "letter opener",
		Motive:  "inheritance",
	})
	require.NoError(t, err)
	require.True(t, v.SuspectCorrect)
	require.False(t, v.WeaponCorrect)
	require.True(t, v.MotiveCorrect)
	require.Equal(t, 70, v.Score)
	require.Equal(t, models.PhaseResolved, session.Phase)
	require.NotNil(t, session.Verdict)

	// A second accusation fails and the verdict is unchanged.
	_, err = f.controller.Accuse(context.Background(), session, models.Accusation{
		Suspect: "s1", Weapon: "brass candlestick", Motive: "inheritance",
	})
	require.ErrorIs(t, err, ErrAlreadyResolved)
	require.Equal(t, v, *session.Verdict)

	// Resolved sessions take no further questions.
	_, err = f.controller.Ask(context.Background(), session, "s1", "One more thing...")
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestAccuseBackendFailureLeavesPhaseUnchanged(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	f.judge.err = ai.ErrBackendUnavailable
	accusation := models.Accusation{Suspect: "s1", Weapon: "brass candlestick", Motive: "inheritance"}
	_, err = f.controller.Accuse(context.Background(), session, accusation)
	require.ErrorIs(t, err, ErrBackendUnavailable)
	require.Equal(t, models.PhaseInterrogation, session.Phase)
	require.Nil(t, session.Verdict)

	// The accusation can be retried once the backend recovers.
	f.judge.err = nil
	v, err := f.controller.Accuse(context.Background(), session, accusation)
	require.NoError(t, err)
	require.Equal(t, verdict.MaxScore, v.Score)
	require.Equal(t, models.PhaseResolved, session.Phase)
}

func TestConcurrentAsksSerialize(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	const questions = 10
	var wg sync.WaitGroup
	errCh := make(chan error, questions)
	for i := 0; i < questions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, askErr := f.controller.Ask(context.Background(), session, "s2", fmt.Sprintf("question %d", i))
			errCh <- askErr
		}(i)
	}
	wg.Wait()
	close(errCh)
	for askErr := range errCh {
		require.NoError(t, askErr)
	}

	require.Equal(t, questions, session.Turns)
	// Each turn writes exactly three entries and they never interleave.
	require.Len(t, session.Transcript, 3*questions)
	for i := 0; i < questions; i++ {
		require.Equal(t, models.SpeakerDetective, session.Transcript[3*i].Speaker)
		require.True(t, session.Transcript[3*i+1].Audit)
		require.False(t, session.Transcript[3*i+2].Audit)
	}
}

func TestStatusSnapshotIsACopy(t *testing.T) {
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	_, err = f.controller.Ask(context.Background(), session, "s1", "Where were you?")
	require.NoError(t, err)

	status := f.controller.Status(session)
	require.Equal(t, session.ID, status.ID)
	require.Equal(t, "blackwood-mansion", status.CaseID)
	require.Equal(t, 1, status.Turns)
	require.Equal(t, models.PhaseInterrogation, status.Phase)
	require.Len(t, status.Transcript, 3)

	// Mutating the snapshot must not touch the session.
	status.Transcript[0].Text = "tampered"
	require.Equal(t, "Where were you?", session.Transcript[0].Text)
}

func TestManager(t *testing.T) {
	manager := NewManager()
	f := newFixture(t, 0)
	session, err := f.controller.StartSession(context.Background(), "")
	require.NoError(t, err)

	manager.Add(session)
	require.Equal(t, 1, manager.Len())

	got, err := manager.Get(session.ID)
	require.NoError(t, err)
	require.Same(t, session, got)

	_, err = manager.Get("missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	manager.Remove(session.ID)
	require.Equal(t, 0, manager.Len())
}
