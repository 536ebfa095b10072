package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/internal/disambig"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/session"
)

// TurnsHandler serves the conversational endpoints. Disambiguation questions
// are answered in a later request to /choose unless Interactive is false, in
// which case the first option is taken.
type TurnsHandler struct {
	Skill       *skill.Skill
	Sessions    session.Store
	Interactive bool
	Timeout     time.Duration
	Logger      *zap.Logger
}

func (h *TurnsHandler) Register(g *echo.Group) {
	g.POST("/ask", h.ask)
	g.POST("/more", h.more)
	g.POST("/choose", h.choose)
	g.POST("/random", h.random)
	g.POST("/query", h.query)
}

func (h *TurnsHandler) chooser() disambig.Chooser {
	if h.Interactive {
		return disambig.DeferredChooser{}
	}
	return disambig.AutoChooser{}
}

func (h *TurnsHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	if h.Timeout > 0 {
		return context.WithTimeout(c.Request().Context(), h.Timeout)
	}
	return context.WithCancel(c.Request().Context())
}

type turnFunc func(ctx context.Context, sess session.Context) (skill.Reply, session.Context, error)

// turn loads the session, runs fn and stores whatever context fn returns.
func (h *TurnsHandler) turn(c echo.Context, id, lang string, fn turnFunc) error {
	ctx, cancel := h.context(c)
	defer cancel()
	sess, err := h.Sessions.EnsureSession(ctx, strings.TrimSpace(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
		sess.Lang = lang
	}
	reply, next, turnErr := fn(ctx, sess)
	if h.Logger != nil {
		h.Logger.Debug("turn",
			zap.String("path", c.Path()),
			zap.String("session", next.ID),
			zap.String("outcome", string(reply.Outcome)),
			zap.Error(turnErr))
	}
	if err := h.Sessions.SaveSession(ctx, next); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if turnErr != nil {
		if knowledge.IsUnavailable(turnErr) {
			return c.JSON(http.StatusServiceUnavailable, TurnResponse{SessionID: next.ID, Reply: reply})
		}
		return turnErr
	}
	return c.JSON(http.StatusOK, TurnResponse{SessionID: next.ID, Reply: reply})
}

func (h *TurnsHandler) ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Utterance) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "utterance is required")
	}
	return h.turn(c, req.SessionID, req.Lang, func(ctx context.Context, sess session.Context) (skill.Reply, session.Context, error) {
		return h.Skill.Ask(ctx, sess, req.Utterance, h.chooser())
	})
}

func (h *TurnsHandler) more(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.turn(c, req.SessionID, "", h.Skill.More)
}

func (h *TurnsHandler) choose(c echo.Context) error {
	var req ChooseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.turn(c, req.SessionID, "", func(ctx context.Context, sess session.Context) (skill.Reply, session.Context, error) {
		return h.Skill.Choose(ctx, sess, req.Answer)
	})
}

func (h *TurnsHandler) random(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.turn(c, req.SessionID, req.Lang, h.Skill.Random)
}

func (h *TurnsHandler) query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx, cancel := h.context(c)
	defer cancel()
	reply, ok, err := h.Skill.CommonQuery(ctx, req.Utterance, strings.ToLower(strings.TrimSpace(req.Lang)))
	if err != nil {
		if knowledge.IsUnavailable(err) {
			return c.JSON(http.StatusServiceUnavailable, QueryResponse{Answered: ok, Reply: reply})
		}
		return err
	}
	return c.JSON(http.StatusOK, QueryResponse{Answered: ok, Reply: reply})
}
