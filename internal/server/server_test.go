package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wikiask/config"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/models"
	"github.com/mohammad-safakhou/wikiask/session/inmemory"
)

const marsBody = "Mars is the fourth planet from the Sun. It is often called the Red Planet. " +
	"Mars has two small moons. Its surface is covered in iron oxide dust."

type stubSource struct {
	down bool
}

func (s *stubSource) Search(_ context.Context, t, _ string) ([]string, error) {
	if s.down {
		return nil, knowledge.Unavailable("search", errors.New("dial tcp: connection refused"))
	}
	switch strings.ToLower(t) {
	case "mars":
		return []string{"Mars"}, nil
	case "mercury":
		return []string{"Mercury"}, nil
	case "mercury (planet)":
		return []string{"Mercury (planet)"}, nil
	case "mercury (element)":
		return []string{"Mercury (element)"}, nil
	}
	return nil, nil
}

func (s *stubSource) GetPage(_ context.Context, title string, _ models.Strategy, _ string) (*models.Page, error) {
	switch title {
	case "Mars":
		return &models.Page{Title: "Mars", Body: marsBody}, nil
	case "Mercury":
		return nil, &knowledge.AmbiguousError{Title: title, Options: []string{"Mercury (planet)", "Mercury (element)"}}
	case "Mercury (planet)":
		return &models.Page{Title: "Mercury (planet)", Body: "Mercury is the smallest planet. It is closest to the Sun."}, nil
	case "Mercury (element)":
		return &models.Page{Title: "Mercury (element)", Body: "Mercury is a chemical element. Its symbol is Hg."}, nil
	}
	return nil, knowledge.ErrNotFound
}

func (s *stubSource) Random(context.Context, string) (string, error) { return "Mars", nil }

func newTestServer(t *testing.T, mutate func(*config.Config), src knowledge.Source) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(Options{
		Config:   cfg,
		Skill:    skill.NewFromConfig(cfg, src, nil, nil),
		Sessions: inmemory.NewInMemorySessionStore(time.Minute),
	})
}

func post(t *testing.T, e *echo.Echo, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeTurn(t *testing.T, rec *httptest.ResponseRecorder) TurnResponse {
	t.Helper()
	var out TurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAskMoreExhaustedOverHTTP(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{})

	rec := post(t, e, "/api/ask", AskRequest{Utterance: "what is mars"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status %d: %s", rec.Code, rec.Body.String())
	}
	first := decodeTurn(t, rec)
	if first.SessionID == "" || first.Outcome != skill.OutcomeMatched || first.Title != "Mars" {
		t.Fatalf("unexpected ask response %+v", first)
	}
	if first.Speech != "Mars is the fourth planet from the Sun. It is often called the Red Planet." {
		t.Fatalf("unexpected opening %q", first.Speech)
	}

	rec = post(t, e, "/api/more", SessionRequest{SessionID: first.SessionID}, nil)
	more := decodeTurn(t, rec)
	if rec.Code != http.StatusOK || more.Outcome != skill.OutcomeMore || !strings.HasPrefix(more.Speech, "Mars has two small moons.") {
		t.Fatalf("unexpected more response %d %+v", rec.Code, more)
	}
	if more.SessionID != first.SessionID {
		t.Fatalf("session changed from %s to %s", first.SessionID, more.SessionID)
	}

	rec = post(t, e, "/api/more", SessionRequest{SessionID: first.SessionID}, nil)
	if out := decodeTurn(t, rec); out.Outcome != skill.OutcomeExhausted {
		t.Fatalf("expected exhausted, got %+v", out)
	}
}

func TestMoreOnFreshSession(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{})
	rec := post(t, e, "/api/more", SessionRequest{}, nil)
	if out := decodeTurn(t, rec); rec.Code != http.StatusOK || out.Outcome != skill.OutcomeNoContext {
		t.Fatalf("expected no context, got %d %+v", rec.Code, out)
	}
}

func TestDeferredChoice(t *testing.T) {
	e := newTestServer(t, func(c *config.Config) {
		c.Skill.Disambiguation.Policy = config.PolicyInteractive
	}, &stubSource{})

	rec := post(t, e, "/api/ask", AskRequest{Utterance: "what is mercury"}, nil)
	asked := decodeTurn(t, rec)
	if asked.Outcome != skill.OutcomeDisambiguation || len(asked.Options) != 2 {
		t.Fatalf("expected a question, got %+v", asked)
	}

	rec = post(t, e, "/api/choose", ChooseRequest{SessionID: asked.SessionID, Answer: "element"}, nil)
	chosen := decodeTurn(t, rec)
	if rec.Code != http.StatusOK || chosen.Outcome != skill.OutcomeMatched || chosen.Title != "Mercury (element)" {
		t.Fatalf("unexpected choice response %d %+v", rec.Code, chosen)
	}
}

func TestAutoChoice(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{})
	rec := post(t, e, "/api/ask", AskRequest{Utterance: "what is mercury"}, nil)
	if out := decodeTurn(t, rec); out.Outcome != skill.OutcomeMatched || out.Title != "Mercury (planet)" {
		t.Fatalf("expected the first option, got %+v", out)
	}
}

func TestUnavailableIs503(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{down: true})
	rec := post(t, e, "/api/ask", AskRequest{Utterance: "what is mars"}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if out := decodeTurn(t, rec); out.Outcome != skill.OutcomeUnavailable || out.Speech == "" {
		t.Fatalf("expected a spoken apology, got %+v", out)
	}
}

func TestAskRequiresUtterance(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{})
	rec := post(t, e, "/api/ask", AskRequest{Utterance: "  "}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var he HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &he); err != nil || he.Error != "utterance is required" {
		t.Fatalf("unexpected error body %q", rec.Body.String())
	}
}

func TestQuery(t *testing.T) {
	e := newTestServer(t, nil, &stubSource{})
	rec := post(t, e, "/api/query", QueryRequest{Utterance: "what is mars"}, nil)
	var out QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Answered || out.Title != "Mars" {
		t.Fatalf("unexpected query response %+v", out)
	}
}

func TestJWTProtectsAPI(t *testing.T) {
	secret := "test-secret"
	e := newTestServer(t, func(c *config.Config) { c.Server.JWTSecret = secret }, &stubSource{})

	if rec := post(t, e, "/api/random", AskRequest{}, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	bad, err := SignJWT("alice", []byte("other"), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := post(t, e, "/api/random", AskRequest{}, http.Header{"Authorization": {"Bearer " + bad}}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a foreign token, got %d", rec.Code)
	}
	tok, err := SignJWT("alice", []byte(secret), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := post(t, e, "/api/random", AskRequest{}, http.Header{"Authorization": {"Bearer " + tok}})
	if out := decodeTurn(t, rec); rec.Code != http.StatusOK || out.Title != "Mars" {
		t.Fatalf("unexpected random response %d %+v", rec.Code, out)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	hrec := httptest.NewRecorder()
	e.ServeHTTP(hrec, req)
	if hrec.Code != http.StatusOK || hrec.Body.String() != "ok" {
		t.Fatalf("healthz must stay open, got %d %q", hrec.Code, hrec.Body.String())
	}
}
