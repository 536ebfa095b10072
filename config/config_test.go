package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Skill.Depth != DepthConcise || cfg.Skill.MoreSentences != 5 {
		t.Fatalf("unexpected skill defaults: %+v", cfg.Skill)
	}
	if o := cfg.Skill.Opening(); o.IntroSentences != 2 || o.IntroChars != 250 {
		t.Fatalf("unexpected concise opening: %+v", o)
	}
	en, ok := cfg.Skill.Languages["en"]
	if !ok || len(en.QuestionVerbs) != 9 || en.QuestionVerbs[0] != " is" {
		t.Fatalf("unexpected english phrasing: %#v", en)
	}
	if cfg.Knowledge.Provider != ProviderMediaWiki || cfg.Knowledge.Timeout != 10*time.Second {
		t.Fatalf("unexpected knowledge defaults: %+v", cfg.Knowledge)
	}
	if cfg.Storage.Session.Type != SessionInMemory {
		t.Fatalf("unexpected session store %q", cfg.Storage.Session.Type)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"skill": {
			"depth": "Verbose",
			"more_sentences": 3,
			"languages": {
				"de": {"question_words": ["was"], "question_verbs": [" ist"], "articles": ["der", "die", "das"]}
			}
		},
		"knowledge": {"provider": "local", "local_path": "pages.json", "language": "DE"}
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Skill.Depth != DepthVerbose || cfg.Skill.MoreSentences != 3 {
		t.Fatalf("unexpected skill config: %+v", cfg.Skill)
	}
	if o := cfg.Skill.Opening(); o.IntroSentences != 20 || o.IntroChars != 2500 {
		t.Fatalf("unexpected verbose opening: %+v", o)
	}
	if de := cfg.Skill.Languages["de"]; len(de.Articles) != 3 || de.QuestionVerbs[0] != " ist" {
		t.Fatalf("unexpected german phrasing: %#v", de)
	}
	if _, ok := cfg.Skill.Languages["en"]; !ok {
		t.Fatalf("english phrasing should always be present")
	}
	if cfg.Knowledge.Language != "de" {
		t.Fatalf("expected normalised language, got %q", cfg.Knowledge.Language)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"depth":    `{"skill": {"depth": "chatty"}}`,
		"policy":   `{"skill": {"disambiguation": {"policy": "coin-flip"}}}`,
		"provider": `{"knowledge": {"provider": "gopher"}}`,
		"local":    `{"knowledge": {"provider": "local"}}`,
		"redis":    `{"storage": {"session": {"type": "redis"}, "redis": {"host": ""}}}`,
		"store":    `{"storage": {"session": {"type": "etcd"}}}`,
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
