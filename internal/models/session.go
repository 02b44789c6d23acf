package models

// Phase is the stage of one game session. Transitions only move forward:
// Interrogation -> Accusation -> Resolved.
type Phase string

const (
	PhaseInterrogation Phase = "interrogation"
	PhaseAccusation    Phase = "accusation"
	PhaseResolved      Phase = "resolved"
)

type Speaker string

const (
	SpeakerDetective Speaker = "detective"
	SpeakerSuspect   Speaker = "suspect"
)

// TranscriptEntry is one line of the session log. Entries flagged Audit hold
// the unfiltered candidate reply kept for review; they are never shown to the
// player.
type TranscriptEntry struct {
	Speaker   Speaker
	SuspectID string
	Text      string
	Audit     bool
}

// Exchange is a question and answer pair with one suspect.
type Exchange struct {
	Question string
	Answer   string
}

// Exchanges pairs up the detective's questions with the filtered answers from
// one suspect, in transcript order. Audit entries are skipped.
func Exchanges(transcript []TranscriptEntry, suspectID string) []Exchange {
	var (
		exchanges []Exchange
		question  string
		pending   bool
	)
	for _, entry := range transcript {
		if entry.SuspectID != suspectID || entry.Audit {
			continue
		}
		switch entry.Speaker {
		case SpeakerDetective:
			question = entry.Text
			pending = true
		case SpeakerSuspect:
			if pending {
				exchanges = append(exchanges, Exchange{Question: question, Answer: entry.Text})
				pending = false
			}
		}
	}
	return exchanges
}

// Accusation names who did it, with what, and why. Submitted once per session.
type Accusation struct {
	// Suspect is the accused persona's ID or display name.
	Suspect string
	Weapon  string
	Motive  string
}

// Verdict grades an accusation. The flags and score are deterministic given
// the accusation and case solution; the narrative is cosmetic.
type Verdict struct {
	SuspectCorrect bool
	WeaponCorrect  bool
	MotiveCorrect  bool
	Score          int
	Narrative      string
}
