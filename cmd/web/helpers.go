package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/blackwood/internal/cases"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/game"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.Debug(message, "method", r.Method, "uri", r.URL.RequestURI(), "status", status)
	app.writeError(w, status, message)
}

// gameError maps the controller's sentinel errors to HTTP statuses. Anything
// unrecognised is a server error.
func (app *application) gameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		app.clientError(w, r, http.StatusNotFound, "no game in progress")
	case errors.Is(err, game.ErrUnknownSuspect):
		app.clientError(w, r, http.StatusNotFound, "unknown suspect")
	case errors.Is(err, cases.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "unknown case")
	case errors.Is(err, game.ErrNoCaseAvailable):
		app.clientError(w, r, http.StatusNotFound, "no case available")
	case errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrTurnLimitExceeded),
		errors.Is(err, game.ErrAlreadyResolved):
		app.clientError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrBackendUnavailable):
		app.clientError(w, r, http.StatusServiceUnavailable, "the suspect is unavailable, try again")
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Error("encode response", errors.SlogError(err))
	}
}

func (app *application) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeJSON reads the request body into v. Unknown fields are rejected so
// typos in client payloads fail loudly.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
