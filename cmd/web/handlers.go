package main

import (
	"net/http"

	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/game"
	"github.com/myrjola/blackwood/internal/models"
)

// sessionKeyGameID is the scs key holding the player's live game session ID.
const sessionKeyGameID = "gameSessionID"

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (app *application) listCases(w http.ResponseWriter, _ *http.Request) {
	summaries := app.cases.List()
	out := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, map[string]string{"id": summary.ID, "title": summary.Title})
	}
	app.writeJSON(w, http.StatusOK, map[string]any{"cases": out})
}

type suspectView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Story string `json:"story"`
}

type caseView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Victim   victimView    `json:"victim"`
	Suspects []suspectView `json:"suspects"`
	Weapons  []string      `json:"weapons"`
	Motives  []string      `json:"motives"`
}

type victimView struct {
	Name        string `json:"name"`
	TimeOfDeath string `json:"time_of_death"`
	Location    string `json:"location"`
	Cause       string `json:"cause"`
}

// newCaseView exposes only the player-visible case facts. Roles, secrets, and
// the solution never leave the server.
func newCaseView(c *models.Case) caseView {
	suspects := make([]suspectView, len(c.Suspects))
	for i, persona := range c.Suspects {
		suspects[i] = suspectView{ID: persona.ID, Name: persona.Name, Story: persona.PublicStory}
	}
	return caseView{
		ID:    c.ID,
		Title: c.Title,
		Victim: victimView{
			Name:        c.Victim.Name,
			TimeOfDeath: c.Victim.TimeOfDeath,
			Location:    c.Victim.Location,
			Cause:       c.Victim.Cause,
		},
		Suspects: suspects,
		Weapons:  c.Weapons,
		Motives:  c.Motives,
	}
}

func (app *application) startGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CaseID string `json:"case_id"`
	}
	// An empty body means a random case.
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			app.clientError(w, r, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	// Starting a new game abandons any game in progress.
	if previousID := app.sessionManager.GetString(r.Context(), sessionKeyGameID); previousID != "" {
		app.sessions.Remove(previousID)
	}

	session, err := app.controller.StartSession(r.Context(), body.CaseID)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.sessions.Add(session)
	app.sessionManager.Put(r.Context(), sessionKeyGameID, session.ID)

	status := app.controller.Status(session)
	app.writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": status.ID,
		"phase":      status.Phase,
		"turns":      status.Turns,
		"max_turns":  status.MaxTurns,
		"case":       newCaseView(session.Case),
	})
}

// currentSession resolves the player's live game from their cookie session.
func (app *application) currentSession(r *http.Request) (*game.Session, error) {
	id := app.sessionManager.GetString(r.Context(), sessionKeyGameID)
	if id == "" {
		return nil, errors.Wrap(game.ErrSessionNotFound, "no game in cookie session")
	}
	session, err := app.sessions.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "look up game session")
	}
	return session, nil
}

type transcriptEntryView struct {
	Speaker   string `json:"speaker"`
	SuspectID string `json:"suspect_id"`
	Text      string `json:"text"`
}

func (app *application) gameStatus(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	status := app.controller.Status(session)

	// Raw unfiltered replies stay server-side.
	transcript := make([]transcriptEntryView, 0, len(status.Transcript))
	for _, entry := range status.Transcript {
		if entry.Audit {
			continue
		}
		transcript = append(transcript, transcriptEntryView{
			Speaker:   string(entry.Speaker),
			SuspectID: entry.SuspectID,
			Text:      entry.Text,
		})
	}

	response := map[string]any{
		"session_id": status.ID,
		"case_id":    status.CaseID,
		"case_title": status.CaseTitle,
		"phase":      status.Phase,
		"turns":      status.Turns,
		"max_turns":  status.MaxTurns,
		"transcript": transcript,
	}
	if status.Verdict != nil {
		response["verdict"] = verdictView(*status.Verdict)
	}
	app.writeJSON(w, http.StatusOK, response)
}

func (app *application) askSuspect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Suspect  string `json:"suspect"`
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Suspect == "" || body.Question == "" {
		app.clientError(w, r, http.StatusBadRequest, "suspect and question are required")
		return
	}

	session, err := app.currentSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	reply, err := app.controller.Ask(r.Context(), session, body.Suspect, body.Question)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, map[string]any{
		"suspect_id":   reply.SuspectID,
		"suspect_name": reply.SuspectName,
		"reply":        reply.Reply,
		"evasive":      reply.Evasive,
		"turn":         reply.Turn,
		"max_turns":    session.MaxTurns,
	})
}

func verdictView(v models.Verdict) map[string]any {
	return map[string]any{
		"suspect_correct": v.SuspectCorrect,
		"weapon_correct":  v.WeaponCorrect,
		"motive_correct":  v.MotiveCorrect,
		"score":           v.Score,
		"narrative":       v.Narrative,
	}
}

func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Suspect string `json:"suspect"`
		Weapon  string `json:"weapon"`
		Motive  string `json:"motive"`
	}
	if err := decodeJSON(r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Suspect == "" || body.Weapon == "" || body.Motive == "" {
		app.clientError(w, r, http.StatusBadRequest, "suspect, weapon, and motive are required")
		return
	}

	session, err := app.currentSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	verdict, err := app.controller.Accuse(r.Context(), session, models.Accusation{
		Suspect: body.Suspect,
		Weapon:  body.Weapon,
		Motive:  body.Motive,
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, map[string]any{"verdict": verdictView(verdict)})
}

func (app *application) abandonGame(w http.ResponseWriter, r *http.Request) {
	session, err := app.currentSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	app.sessions.Remove(session.ID)
	app.sessionManager.Remove(r.Context(), sessionKeyGameID)
	app.writeJSON(w, http.StatusOK, map[string]any{"abandoned": session.ID})
}
