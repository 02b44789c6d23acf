// Command smoketest exercises a running server end to end: health, case
// listing, and the start/status/abandon session flow for several concurrent
// clients. It stays away from the interrogation endpoints so a smoke run never
// spends inference tokens.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	clients        = 4
	requestTimeout = 10 * time.Second
)

type client struct {
	baseURL string
	http    http.Client
}

func newClient(baseURL string) (*client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}
	return &client{baseURL: baseURL, http: http.Client{Jar: jar}}, nil
}

func (c *client) do(ctx context.Context, method, urlPath string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+urlPath, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request", slog.String("path", urlPath))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New("unexpected status",
			slog.String("path", urlPath), slog.Int("status", resp.StatusCode))
	}
	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode response", slog.String("path", urlPath))
		}
	}
	return nil
}

// testSessionFlow starts a game, checks it shows up in the status, and
// abandons it.
func testSessionFlow(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	c, err := newClient(baseURL)
	if err != nil {
		return err
	}

	var health struct {
		Status string `json:"status"`
	}
	if err = c.do(ctx, http.MethodGet, "/api/healthy", &health); err != nil {
		return errors.Wrap(err, "health check")
	}
	if health.Status != "ok" {
		return errors.New("unhealthy server", slog.String("status", health.Status))
	}

	var caseList struct {
		Cases []struct {
			ID string `json:"id"`
		} `json:"cases"`
	}
	if err = c.do(ctx, http.MethodGet, "/api/cases", &caseList); err != nil {
		return errors.Wrap(err, "list cases")
	}
	if len(caseList.Cases) == 0 {
		return errors.New("no cases available")
	}

	var started struct {
		SessionID string `json:"session_id"`
		Phase     string `json:"phase"`
	}
	if err = c.do(ctx, http.MethodPost, "/api/game/start", &started); err != nil {
		return errors.Wrap(err, "start game")
	}
	if started.Phase != "interrogation" {
		return errors.New("unexpected phase", slog.String("phase", started.Phase))
	}

	var status struct {
		SessionID string `json:"session_id"`
	}
	if err = c.do(ctx, http.MethodGet, "/api/game", &status); err != nil {
		return errors.Wrap(err, "game status")
	}
	if status.SessionID != started.SessionID {
		return errors.New("cookie session lost its game",
			slog.String("started", started.SessionID), slog.String("status", status.SessionID))
	}

	if err = c.do(ctx, http.MethodDelete, "/api/game", nil); err != nil {
		return errors.Wrap(err, "abandon game")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <base-url>")
		os.Exit(1)
	}
	baseURL := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("base_url", baseURL))

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < clients; i++ {
		group.Go(func() error {
			return testSessionFlow(groupCtx, baseURL)
		})
	}
	if err := group.Wait(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("Smoke test successful with %d concurrent clients 🙌", clients))
	os.Exit(0)
}
