package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pageAnswer struct {
	page *models.Page
	err  error
}

// fakeSource answers Search from searches and GetPage from pages, keyed by
// strategy and then title.
type fakeSource struct {
	searches  map[string][]string
	searchErr error
	pages     map[models.Strategy]map[string]pageAnswer
	delay     map[models.Strategy]time.Duration

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) Search(ctx context.Context, topic, lang string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "search:"+topic)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searches[topic], nil
}

func (f *fakeSource) GetPage(ctx context.Context, title string, strategy models.Strategy, lang string) (*models.Page, error) {
	if d := f.delay[strategy]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.calls = append(f.calls, "page:"+string(strategy)+":"+title)
	f.mu.Unlock()
	a, ok := f.pages[strategy][title]
	if !ok {
		return nil, knowledge.ErrNotFound
	}
	return a.page, a.err
}

func (f *fakeSource) Random(ctx context.Context, lang string) (string, error) {
	return "", errors.New("not implemented")
}

func page(title string) pageAnswer {
	return pageAnswer{page: &models.Page{Title: title, Body: title + " body.", ThumbnailURL: "https://img.example/" + title + ".jpg"}}
}

func newResolver(src knowledge.Source) *Resolver {
	return NewResolver(src, knowledge.ImagePicker{Default: "default.svg"}, nil, nil)
}

func TestStrictMatchWinsOverLenient(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"automobiles": {"Automobile"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyStrict:  {"Automobile": page("Automobile")},
			models.StrategyLenient: {"Automobile": page("Cat")},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "automobiles", "en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ArticleMatch || res.Article.Title != "Automobile" || res.Strategy != models.StrategyStrict {
		t.Fatalf("expected strict Automobile, got %+v", res)
	}
	if res.Article.ImageURL != "https://img.example/Automobile.jpg" {
		t.Fatalf("unexpected image %q", res.Article.ImageURL)
	}
}

func TestReconcileIsOrderIndependent(t *testing.T) {
	for _, slow := range []models.Strategy{models.StrategyStrict, models.StrategyLenient} {
		src := &fakeSource{
			searches: map[string][]string{"automobiles": {"Automobile"}},
			pages: map[models.Strategy]map[string]pageAnswer{
				models.StrategyStrict:  {"Automobile": page("Automobile")},
				models.StrategyLenient: {"Automobile": page("Cat")},
			},
			delay: map[models.Strategy]time.Duration{slow: 20 * time.Millisecond},
		}
		res, err := newResolver(src).Resolve(context.Background(), "automobiles", "en")
		if err != nil || res.Article == nil || res.Article.Title != "Automobile" {
			t.Fatalf("slow %s: expected Automobile, got %+v, %v", slow, res, err)
		}
	}
}

func TestLenientUsedWhenStrictNotFound(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"earht": {"Earht"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyLenient: {"Earht": page("Earth")},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "earht", "en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != ArticleMatch || res.Article.Title != "Earth" || res.Article.Strategy != models.StrategyLenient {
		t.Fatalf("expected lenient Earth, got %+v", res)
	}
}

func TestDisambiguationIsCapped(t *testing.T) {
	amb := &knowledge.AmbiguousError{Title: "John", Options: []string{"John Smith", "John Doe", "John (name)", "A", "B", "C", "D"}}
	src := &fakeSource{
		searches: map[string][]string{"john": {"John"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyStrict:  {"John": {err: amb}},
			models.StrategyLenient: {"John": {err: amb}},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "john", "en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Kind != Disambiguation {
		t.Fatalf("expected disambiguation, got %+v", res)
	}
	want := []string{"John Smith", "John Doe", "John (name)", "A", "B"}
	if diff := cmp.Diff(want, res.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyDisambiguationIsNoMatch(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"john": {"John"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyStrict:  {"John": {err: &knowledge.AmbiguousError{Title: "John"}}},
			models.StrategyLenient: {"John": {err: &knowledge.AmbiguousError{Title: "John"}}},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "john", "en")
	if err != nil || res.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %+v, %v", res, err)
	}
}

func TestNothingFound(t *testing.T) {
	src := &fakeSource{}
	res, err := newResolver(src).Resolve(context.Background(), "qwzx", "en")
	if err != nil || res.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %+v, %v", res, err)
	}
	for _, call := range src.calls {
		if call != "search:qwzx" {
			t.Fatalf("expected only searches, got %v", src.calls)
		}
	}
}

func TestUnexpectedFaultIsNoMatch(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"earth": {"Earth"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyStrict:  {"Earth": {err: errors.New("malformed response")}},
			models.StrategyLenient: {"Earth": {err: errors.New("malformed response")}},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "earth", "en")
	if err != nil || res.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %+v, %v", res, err)
	}
}

func TestSourceUnavailable(t *testing.T) {
	src := &fakeSource{searchErr: knowledge.Unavailable("search", errors.New("connection refused"))}
	_, err := newResolver(src).Resolve(context.Background(), "earth", "en")
	if !knowledge.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestStrictDisambiguationUsedWhenLenientUnavailable(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"john": {"John"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyStrict:  {"John": {err: &knowledge.AmbiguousError{Title: "John", Options: []string{"John Smith"}}}},
			models.StrategyLenient: {"John": {err: knowledge.Unavailable("page", errors.New("timeout"))}},
		},
	}
	res, err := newResolver(src).Resolve(context.Background(), "john", "en")
	if err != nil || res.Kind != Disambiguation {
		t.Fatalf("expected strict disambiguation, got %+v, %v", res, err)
	}
}

func TestStrictNoMatchWithLenientUnavailable(t *testing.T) {
	src := &fakeSource{
		searches: map[string][]string{"earth": {"Earth"}},
		pages: map[models.Strategy]map[string]pageAnswer{
			models.StrategyLenient: {"Earth": {err: knowledge.Unavailable("page", errors.New("timeout"))}},
		},
	}
	_, err := newResolver(src).Resolve(context.Background(), "earth", "en")
	if !knowledge.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestBlankTopicIsNoMatch(t *testing.T) {
	src := &fakeSource{}
	res, err := newResolver(src).Resolve(context.Background(), "   ", "en")
	if err != nil || res.Kind != NoMatch || len(src.calls) != 0 {
		t.Fatalf("expected NoMatch without source calls, got %+v, %v, %v", res, err, src.calls)
	}
}

func TestReconcileTable(t *testing.T) {
	match := Matched(&models.Article{Title: "Automobile", Strategy: models.StrategyStrict})
	other := Matched(&models.Article{Title: "Cat", Strategy: models.StrategyLenient})
	amb := Ambiguous([]string{"A", "B"}, models.StrategyLenient)
	down := knowledge.Unavailable("page", errors.New("down"))

	tests := []struct {
		name      string
		strict    attempt
		lenient   attempt
		wantTitle string
		wantKind  Kind
		wantErr   bool
	}{
		{"strict match beats lenient match", attempt{res: match}, attempt{res: other}, "Automobile", ArticleMatch, false},
		{"strict match beats lenient outage", attempt{res: match}, attempt{err: down}, "Automobile", ArticleMatch, false},
		{"lenient match after strict miss", attempt{res: None(models.StrategyStrict)}, attempt{res: other}, "Cat", ArticleMatch, false},
		{"lenient ambiguity after strict miss", attempt{res: None(models.StrategyStrict)}, attempt{res: amb}, "", Disambiguation, false},
		{"lenient miss after strict outage", attempt{err: down}, attempt{res: None(models.StrategyLenient)}, "", NoMatch, false},
		{"both down", attempt{err: down}, attempt{err: down}, "", NoMatch, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reconcile(tt.strict, tt.lenient)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if res.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", res.Kind, tt.wantKind)
			}
			if tt.wantTitle != "" && res.Article.Title != tt.wantTitle {
				t.Fatalf("title = %q, want %q", res.Article.Title, tt.wantTitle)
			}
		})
	}
}
