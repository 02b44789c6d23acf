package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave)

	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))
	mux.Handle("GET /api/cases", session.ThenFunc(app.listCases))

	mux.Handle("POST /api/game/start", session.ThenFunc(app.startGame))
	mux.Handle("GET /api/game", session.ThenFunc(app.gameStatus))
	mux.Handle("POST /api/game/ask", session.ThenFunc(app.askSuspect))
	mux.Handle("POST /api/game/accuse", session.ThenFunc(app.accuse))
	mux.Handle("DELETE /api/game", session.ThenFunc(app.abandonGame))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
