// Package skill handles conversation turns: asking about a topic, asking for
// more, answering a disambiguation question and picking a random article.
package skill

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/config"
	"github.com/mohammad-safakhou/wikiask/internal/disambig"
	"github.com/mohammad-safakhou/wikiask/internal/helpers"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/lookup"
	"github.com/mohammad-safakhou/wikiask/internal/pagination"
	"github.com/mohammad-safakhou/wikiask/internal/telemetry"
	"github.com/mohammad-safakhou/wikiask/internal/topic"
	"github.com/mohammad-safakhou/wikiask/models"
	"github.com/mohammad-safakhou/wikiask/session"
)

type Outcome string

const (
	OutcomeMatched        Outcome = "matched"
	OutcomeMore           Outcome = "more"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeUnavailable    Outcome = "source_unavailable"
	OutcomeExhausted      Outcome = "exhausted"
	OutcomeDisambiguation Outcome = "disambiguation"
	OutcomeDeclined       Outcome = "declined"
	OutcomeNoContext      Outcome = "no_context"
)

// Reply is what a turn produces for the user.
type Reply struct {
	Outcome Outcome         `json:"outcome"`
	Speech  string          `json:"speech"`
	Display *models.Display `json:"display,omitempty"`
	Options []string        `json:"options,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Title   string          `json:"title,omitempty"`
}

type Deps struct {
	Source      knowledge.Source
	Images      knowledge.ImagePicker
	Extractors  map[string]*topic.Extractor // by language code
	Pager       *pagination.Engine
	Dialogs     Dialogs
	DefaultLang string
	MaxOptions  int
	MaxRounds   int
	Logger      *zap.Logger
	Metrics     *telemetry.Metrics
}

type Skill struct {
	source      knowledge.Source
	images      knowledge.ImagePicker
	extractors  map[string]*topic.Extractor
	lookup      *lookup.Resolver
	disambig    *disambig.Resolver
	pager       *pagination.Engine
	dialogs     Dialogs
	defaultLang string
	logger      *zap.Logger
	metrics     *telemetry.Metrics
}

func New(d Deps) *Skill {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := strings.ToLower(strings.TrimSpace(d.DefaultLang))
	if lang == "" {
		lang = "en"
	}
	extractors := d.Extractors
	if extractors == nil {
		extractors = map[string]*topic.Extractor{}
	}
	if _, ok := extractors[lang]; !ok {
		extractors[lang] = topic.NewExtractor(topic.EnglishWords, topic.EnglishVerbs, topic.EnglishArticles)
	}
	pager := d.Pager
	if pager == nil {
		pager = pagination.New(pagination.Config{})
	}
	if d.Dialogs.phrases == nil {
		d.Dialogs = NewDialogs(nil)
	}
	lr := lookup.NewResolver(d.Source, d.Images, logger, d.Metrics)
	return &Skill{
		source:      d.Source,
		images:      d.Images,
		extractors:  extractors,
		lookup:      lr,
		disambig:    disambig.NewResolver(lr, d.MaxOptions, d.MaxRounds, logger),
		pager:       pager,
		dialogs:     d.Dialogs,
		defaultLang: lang,
		logger:      logger.Named("skill"),
		metrics:     d.Metrics,
	}
}

// NewFromConfig wires a Skill from the skill and knowledge configuration.
func NewFromConfig(cfg *config.Config, src knowledge.Source, logger *zap.Logger, metrics *telemetry.Metrics) *Skill {
	extractors := make(map[string]*topic.Extractor, len(cfg.Skill.Languages))
	for code, p := range cfg.Skill.Languages {
		extractors[code] = topic.NewExtractor(p.QuestionWords, p.QuestionVerbs, p.Articles)
	}
	opening := cfg.Skill.Opening()
	return New(Deps{
		Source: src,
		Images: knowledge.ImagePicker{
			Excluded: cfg.Knowledge.ExcludedImages,
			Default:  cfg.Knowledge.DefaultImage,
		},
		Extractors: extractors,
		Pager: pagination.New(pagination.Config{
			IntroSentences: opening.IntroSentences,
			IntroChars:     opening.IntroChars,
			MoreSentences:  cfg.Skill.MoreSentences,
			HeadingMarker:  cfg.Skill.HeadingMarker,
		}),
		Dialogs:     NewDialogs(cfg.Dialogs),
		DefaultLang: cfg.Knowledge.Language,
		MaxOptions:  cfg.Skill.Disambiguation.MaxOptions,
		MaxRounds:   cfg.Skill.Disambiguation.MaxRounds,
		Logger:      logger,
		Metrics:     metrics,
	})
}

func (s *Skill) lang(sess session.Context) string {
	if l := strings.ToLower(strings.TrimSpace(sess.Lang)); l != "" {
		return l
	}
	return s.defaultLang
}

func (s *Skill) extractor(lang string) *topic.Extractor {
	if e, ok := s.extractors[lang]; ok {
		return e
	}
	return s.extractors[s.defaultLang]
}

// Topic extracts the search topic from an utterance.
func (s *Skill) Topic(utterance, lang string) string {
	return strings.TrimSpace(s.extractor(lang).Extract(utterance))
}

// Ask looks up the topic of utterance and opens the article found. Any
// outcome other than a match clears the active article; a deferred choice
// leaves a pending question in the returned context.
func (s *Skill) Ask(ctx context.Context, sess session.Context, utterance string, chooser disambig.Chooser) (Reply, session.Context, error) {
	lang := s.lang(sess)
	t := s.Topic(utterance, lang)
	s.logger.Debug("ask", zap.String("session", sess.ID), zap.String("topic", t), zap.String("lang", lang))

	res, err := s.lookup.Resolve(ctx, t, lang)
	if err != nil {
		return s.finish("ask", s.unavailable(t), sess.Cleared(), err)
	}
	switch res.Kind {
	case lookup.ArticleMatch:
		reply, next := s.open(sess, res.Article, t)
		return s.finish("ask", reply, next, nil)
	case lookup.Disambiguation:
		a, err := s.disambig.Resolve(ctx, res.Options, lang, chooser)
		return s.afterChoice("ask", sess, t, a, err)
	case lookup.NoMatch:
		return s.finish("ask", s.notFound(t), sess.Cleared(), nil)
	default:
		return s.finish("ask", s.notFound(t), sess.Cleared(), fmt.Errorf("unknown lookup result kind %s", res.Kind))
	}
}

// More continues the active article.
func (s *Skill) More(ctx context.Context, sess session.Context) (Reply, session.Context, error) {
	if !sess.HasArticle() {
		return s.finish("more", Reply{Outcome: OutcomeNoContext, Speech: s.dialogs.Render(DialogNoContext, nil)}, sess, nil)
	}
	a := sess.Active.Article
	a.Sentences = append([]string(nil), a.Sentences...)
	if !a.Segmented && strings.TrimSpace(a.Body) == "" {
		page, err := s.source.GetPage(ctx, a.Title, a.Strategy, a.Lang)
		if err != nil {
			if knowledge.IsUnavailable(err) {
				return s.finish("more", s.unavailable(a.Title), sess, err)
			}
			s.logger.Warn("active article could not be reloaded", zap.String("title", a.Title), zap.Error(err))
			return s.finish("more", s.notFound(a.Title), sess.Cleared(), nil)
		}
		a.Body = page.Body
	}

	slice, cursor, err := s.pager.Continue(&a, sess.Active.Spoken)
	if errors.Is(err, pagination.ErrExhausted) {
		reply := Reply{
			Outcome: OutcomeExhausted,
			Speech:  s.dialogs.Render(DialogExhausted, map[string]string{"title": a.Title}),
			Title:   a.Title,
		}
		return s.finish("more", reply, sess.WithSpoken(cursor), nil)
	}
	a.Body = ""
	reply := Reply{
		Outcome: OutcomeMore,
		Speech:  slice.Text,
		Display: s.display(&a, slice),
		Title:   a.Title,
	}
	return s.finish("more", reply, sess.WithArticle(&a, cursor), nil)
}

// Choose answers a pending disambiguation question with the user's reply. A
// reply that is itself a new question starts a fresh lookup instead.
func (s *Skill) Choose(ctx context.Context, sess session.Context, answer string) (Reply, session.Context, error) {
	if sess.Pending == nil {
		return s.finish("choose", Reply{Outcome: OutcomeNoContext, Speech: s.dialogs.Render(DialogNoContext, nil)}, sess, nil)
	}
	p := *sess.Pending
	choice := disambig.MatchChoice(answer, p.Options)
	if choice == "" {
		if t, ok := s.extractor(s.lang(sess)).Matched(answer); ok && strings.TrimSpace(t) != "" {
			s.logger.Debug("new question while a choice was pending", zap.String("session", sess.ID), zap.String("topic", t))
			return s.Ask(ctx, sess.Cleared(), answer, disambig.DeferredChooser{})
		}
		reply := Reply{Outcome: OutcomeDeclined, Speech: s.dialogs.Render(DialogDeclined, nil), Topic: p.Topic}
		return s.finish("choose", reply, sess.Cleared(), nil)
	}
	a, err := s.disambig.Settle(ctx, choice, s.lang(sess), disambig.DeferredChooser{}, p.Round)
	return s.afterChoice("choose", sess, choice, a, err)
}

// Random opens a random article.
func (s *Skill) Random(ctx context.Context, sess session.Context) (Reply, session.Context, error) {
	lang := s.lang(sess)
	title, err := s.source.Random(ctx, lang)
	if err != nil {
		if knowledge.IsUnavailable(err) {
			return s.finish("random", s.unavailable(""), sess.Cleared(), err)
		}
		s.logger.Error("random article failed", zap.Error(err))
		return s.finish("random", s.notFound(""), sess.Cleared(), nil)
	}
	page, err := s.source.GetPage(ctx, title, models.StrategyStrict, lang)
	if err != nil {
		if amb, ok := knowledge.AsAmbiguous(err); ok {
			a, err := s.disambig.Resolve(ctx, amb.Options, lang, disambig.AutoChooser{})
			return s.afterChoice("random", sess, title, a, err)
		}
		if knowledge.IsUnavailable(err) {
			return s.finish("random", s.unavailable(title), sess.Cleared(), err)
		}
		return s.finish("random", s.notFound(title), sess.Cleared(), nil)
	}
	a := models.NewArticle(page, models.StrategyStrict, s.images.Best(page))
	if a.Lang == "" {
		a.Lang = lang
	}
	reply, next := s.open(sess, a, title)
	return s.finish("random", reply, next, nil)
}

// CommonQuery answers an utterance only when it is phrased as a question. It
// always settles ambiguity automatically and touches no session. The bool
// reports whether the skill has an answer.
func (s *Skill) CommonQuery(ctx context.Context, utterance, lang string) (Reply, bool, error) {
	if lang == "" {
		lang = s.defaultLang
	}
	t, ok := s.extractor(lang).Matched(utterance)
	t = strings.TrimSpace(t)
	if !ok || t == "" {
		return Reply{}, false, nil
	}
	res, err := s.lookup.Resolve(ctx, t, lang)
	if err != nil {
		reply, _, err := s.finish("query", s.unavailable(t), session.Context{}, err)
		return reply, true, err
	}
	var a *models.Article
	switch res.Kind {
	case lookup.ArticleMatch:
		a = res.Article
	case lookup.Disambiguation:
		a, err = s.disambig.Resolve(ctx, res.Options, lang, disambig.AutoChooser{})
		if err != nil {
			reply, _, err := s.finish("query", s.unavailable(t), session.Context{}, err)
			return reply, true, err
		}
	}
	if a == nil {
		s.metrics.Turn("query", string(OutcomeNotFound))
		return Reply{}, false, nil
	}
	reply, _ := s.open(session.New(""), a, t)
	s.metrics.Turn("query", string(reply.Outcome))
	return reply, true, nil
}

func (s *Skill) afterChoice(intent string, sess session.Context, t string, a *models.Article, err error) (Reply, session.Context, error) {
	if d, ok := disambig.AsDeferred(err); ok {
		reply := Reply{
			Outcome: OutcomeDisambiguation,
			Speech: s.dialogs.Render(DialogDisambiguation, map[string]string{
				"topic":   t,
				"options": s.dialogs.List(d.Options),
			}),
			Options: d.Options,
			Topic:   t,
		}
		next := sess.WithPending(session.Pending{Topic: t, Options: d.Options, Round: d.Round})
		return s.finish(intent, reply, next, nil)
	}
	if err != nil {
		if knowledge.IsUnavailable(err) {
			return s.finish(intent, s.unavailable(t), sess.Cleared(), err)
		}
		s.logger.Error("disambiguation failed", zap.String("topic", t), zap.Error(err))
		return s.finish(intent, s.notFound(t), sess.Cleared(), nil)
	}
	if a == nil {
		return s.finish(intent, s.notFound(t), sess.Cleared(), nil)
	}
	reply, next := s.open(sess, a, t)
	return s.finish(intent, reply, next, nil)
}

// open reads the opening of a and makes it the active article.
func (s *Skill) open(sess session.Context, a *models.Article, t string) (Reply, session.Context) {
	slice, cursor := s.pager.Open(a)
	speech := slice.Text
	if slice.Empty() {
		speech = s.dialogs.Render(DialogEmpty, map[string]string{"title": a.Title})
	}
	reply := Reply{
		Outcome: OutcomeMatched,
		Speech:  speech,
		Display: s.display(a, slice),
		Topic:   t,
		Title:   a.Title,
	}
	stored := *a
	stored.Body = ""
	return reply, sess.WithArticle(&stored, cursor)
}

func (s *Skill) display(a *models.Article, slice pagination.Slice) *models.Display {
	return &models.Display{
		Title:       a.Title,
		SummaryText: helpers.PlainText(slice.Text),
		ImageURL:    a.ImageURL,
	}
}

func (s *Skill) notFound(t string) Reply {
	return Reply{Outcome: OutcomeNotFound, Speech: s.dialogs.Render(DialogNotFound, map[string]string{"topic": t}), Topic: t}
}

func (s *Skill) unavailable(t string) Reply {
	return Reply{Outcome: OutcomeUnavailable, Speech: s.dialogs.Render(DialogUnavailable, map[string]string{"topic": t}), Topic: t}
}

func (s *Skill) finish(intent string, r Reply, sess session.Context, err error) (Reply, session.Context, error) {
	s.metrics.Turn(intent, string(r.Outcome))
	if err != nil && r.Outcome == OutcomeUnavailable {
		s.logger.Warn("turn failed: knowledge source unavailable", zap.String("intent", intent), zap.Error(err))
	}
	return r, sess, err
}
