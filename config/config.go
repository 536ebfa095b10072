package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the wikiask service
type Config struct {
	General   GeneralConfig     `mapstructure:"general"`
	Server    ServerConfig      `mapstructure:"server"`
	Knowledge KnowledgeConfig   `mapstructure:"knowledge"`
	Skill     SkillConfig       `mapstructure:"skill"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Telemetry TelemetryConfig   `mapstructure:"telemetry"`
	Dialogs   map[string]string `mapstructure:"dialogs"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// KnowledgeConfig selects and tunes the encyclopedia client
type KnowledgeConfig struct {
	Provider           string        `mapstructure:"provider"` // mediawiki, local
	Language           string        `mapstructure:"language"`
	SupportedLanguages []string      `mapstructure:"supported_languages"`
	APIURL             string        `mapstructure:"api_url"` // %s is replaced by the language code
	UserAgent          string        `mapstructure:"user_agent"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RateLimit          float64       `mapstructure:"rate_limit"` // requests per second, 0 disables pacing
	Burst              int           `mapstructure:"burst"`
	IntroOnly          bool          `mapstructure:"intro_only"`
	LocalPath          string        `mapstructure:"local_path"`
	ExcludedImages     []string      `mapstructure:"excluded_images"`
	DefaultImage       string        `mapstructure:"default_image"`
	Cache              CacheConfig   `mapstructure:"cache"`
}

// CacheConfig controls the read-through page cache
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	TTL         time.Duration `mapstructure:"ttl"`
	MaxCost     int64         `mapstructure:"max_cost"`
	NumCounters int64         `mapstructure:"num_counters"`
}

// SkillConfig contains the conversational behaviour
type SkillConfig struct {
	Depth          string                    `mapstructure:"depth"` // concise, verbose
	MoreSentences  int                       `mapstructure:"more_sentences"`
	HeadingMarker  string                    `mapstructure:"heading_marker"`
	Concise        DepthConfig               `mapstructure:"concise"`
	Verbose        DepthConfig               `mapstructure:"verbose"`
	Disambiguation DisambiguationConfig      `mapstructure:"disambiguation"`
	Languages      map[string]PhrasingConfig `mapstructure:"languages"`
}

// DepthConfig sizes the opening slice of an article
type DepthConfig struct {
	IntroSentences int `mapstructure:"intro_sentences"`
	IntroChars     int `mapstructure:"intro_chars"`
}

// DisambiguationConfig controls how ambiguous topics are settled
type DisambiguationConfig struct {
	Policy     string `mapstructure:"policy"` // auto, interactive
	MaxOptions int    `mapstructure:"max_options"`
	MaxRounds  int    `mapstructure:"max_rounds"`
}

// PhrasingConfig lists the question scaffolding stripped from utterances.
// Order matters: the first matching combination wins.
type PhrasingConfig struct {
	QuestionWords []string `mapstructure:"question_words"`
	QuestionVerbs []string `mapstructure:"question_verbs"`
	Articles      []string `mapstructure:"articles"`
}

// StorageConfig contains session persistence settings
type StorageConfig struct {
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// SessionConfig selects the session store
type SessionConfig struct {
	Type string        `mapstructure:"type"` // inmemory, redis
	TTL  time.Duration `mapstructure:"ttl"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

const (
	DepthConcise = "concise"
	DepthVerbose = "verbose"

	PolicyAuto        = "auto"
	PolicyInteractive = "interactive"

	ProviderMediaWiki = "mediawiki"
	ProviderLocal     = "local"

	SessionInMemory = "inmemory"
	SessionRedis    = "redis"
)

func (g GeneralConfig) Normalize() GeneralConfig {
	g.LogLevel = strings.ToLower(strings.TrimSpace(g.LogLevel))
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.Debug {
		g.LogLevel = "debug"
	}
	return g
}

func (k KnowledgeConfig) Normalize() KnowledgeConfig {
	k.Provider = strings.ToLower(strings.TrimSpace(k.Provider))
	if k.Provider == "" {
		k.Provider = ProviderMediaWiki
	}
	k.Language = strings.ToLower(strings.TrimSpace(k.Language))
	if k.Language == "" {
		k.Language = "en"
	}
	seen := map[string]struct{}{}
	var langs []string
	for _, l := range k.SupportedLanguages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		langs = append(langs, l)
	}
	if _, ok := seen[k.Language]; !ok {
		langs = append(langs, k.Language)
	}
	k.SupportedLanguages = langs
	if k.Burst <= 0 {
		k.Burst = 1
	}
	return k
}

func (k KnowledgeConfig) Validate() error {
	switch k.Provider {
	case ProviderMediaWiki:
		if !strings.Contains(k.APIURL, "%s") {
			return fmt.Errorf("knowledge.api_url must contain %%s for the language code")
		}
		if k.Timeout <= 0 {
			return fmt.Errorf("knowledge.timeout must be > 0")
		}
	case ProviderLocal:
		if strings.TrimSpace(k.LocalPath) == "" {
			return fmt.Errorf("knowledge.local_path required for the local provider")
		}
	default:
		return fmt.Errorf("knowledge.provider %q is not supported", k.Provider)
	}
	if k.RateLimit < 0 {
		return fmt.Errorf("knowledge.rate_limit cannot be negative")
	}
	return nil
}

func (s SkillConfig) Normalize() SkillConfig {
	s.Depth = strings.ToLower(strings.TrimSpace(s.Depth))
	if s.Depth == "" {
		s.Depth = DepthConcise
	}
	if s.MoreSentences <= 0 {
		s.MoreSentences = 5
	}
	if s.HeadingMarker == "" {
		s.HeadingMarker = "=="
	}
	if s.Concise.IntroSentences <= 0 {
		s.Concise.IntroSentences = 2
	}
	if s.Concise.IntroChars <= 0 {
		s.Concise.IntroChars = 250
	}
	if s.Verbose.IntroSentences <= 0 {
		s.Verbose.IntroSentences = 20
	}
	if s.Verbose.IntroChars <= 0 {
		s.Verbose.IntroChars = 2500
	}
	s.Disambiguation.Policy = strings.ToLower(strings.TrimSpace(s.Disambiguation.Policy))
	if s.Disambiguation.Policy == "" {
		s.Disambiguation.Policy = PolicyAuto
	}
	if s.Disambiguation.MaxOptions <= 0 || s.Disambiguation.MaxOptions > 5 {
		s.Disambiguation.MaxOptions = 5
	}
	if s.Disambiguation.MaxRounds <= 0 {
		s.Disambiguation.MaxRounds = 2
	}
	langs := make(map[string]PhrasingConfig, len(s.Languages)+1)
	for code, p := range s.Languages {
		langs[strings.ToLower(strings.TrimSpace(code))] = p
	}
	if _, ok := langs["en"]; !ok {
		langs["en"] = defaultEnglishPhrasing()
	}
	s.Languages = langs
	return s
}

func (s SkillConfig) Validate() error {
	if s.Depth != DepthConcise && s.Depth != DepthVerbose {
		return fmt.Errorf("skill.depth must be %q or %q", DepthConcise, DepthVerbose)
	}
	if s.Disambiguation.Policy != PolicyAuto && s.Disambiguation.Policy != PolicyInteractive {
		return fmt.Errorf("skill.disambiguation.policy must be %q or %q", PolicyAuto, PolicyInteractive)
	}
	for code, p := range s.Languages {
		if len(p.QuestionWords) == 0 || len(p.QuestionVerbs) == 0 {
			return fmt.Errorf("skill.languages.%s needs question_words and question_verbs", code)
		}
	}
	return nil
}

// Opening returns the intro sizing for the configured depth.
func (s SkillConfig) Opening() DepthConfig {
	if s.Depth == DepthVerbose {
		return s.Verbose
	}
	return s.Concise
}

func (s StorageConfig) Validate() error {
	switch s.Session.Type {
	case SessionInMemory:
	case SessionRedis:
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.session.type %q is not supported", s.Session.Type)
	}
	if s.Session.TTL <= 0 {
		return fmt.Errorf("storage.session.ttl must be > 0")
	}
	return nil
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr is the host:port pair for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func defaultEnglishPhrasing() PhrasingConfig {
	return PhrasingConfig{
		QuestionWords: []string{"who", "whom", "what", "when"},
		QuestionVerbs: []string{" is", "'s", "s", " are", "'re", "re", " did", " was", " were"},
		Articles:      []string{"a", "an", "the", "any"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("knowledge.provider", ProviderMediaWiki)
	v.SetDefault("knowledge.language", "en")
	v.SetDefault("knowledge.supported_languages", []string{"en", "de", "es", "fr", "it", "nl", "pt", "sv"})
	v.SetDefault("knowledge.api_url", "https://%s.wikipedia.org/w/api.php")
	v.SetDefault("knowledge.user_agent", "wikiask/1.0 (https://github.com/mohammad-safakhou/wikiask)")
	v.SetDefault("knowledge.timeout", 10*time.Second)
	v.SetDefault("knowledge.rate_limit", 10.0)
	v.SetDefault("knowledge.burst", 4)
	v.SetDefault("knowledge.intro_only", true)
	v.SetDefault("knowledge.excluded_images", []string{"Blue_pencil.svg", "OOjs_UI_icon_edit-ltr-progressive.svg"})
	v.SetDefault("knowledge.default_image", "ui/default-images/wikipedia-logo.svg")
	v.SetDefault("knowledge.cache.enabled", true)
	v.SetDefault("knowledge.cache.ttl", 10*time.Minute)
	v.SetDefault("knowledge.cache.max_cost", 64<<20)
	v.SetDefault("knowledge.cache.num_counters", 100000)
	v.SetDefault("skill.depth", DepthConcise)
	v.SetDefault("skill.more_sentences", 5)
	v.SetDefault("skill.heading_marker", "==")
	v.SetDefault("skill.concise.intro_sentences", 2)
	v.SetDefault("skill.concise.intro_chars", 250)
	v.SetDefault("skill.verbose.intro_sentences", 20)
	v.SetDefault("skill.verbose.intro_chars", 2500)
	v.SetDefault("skill.disambiguation.policy", PolicyAuto)
	v.SetDefault("skill.disambiguation.max_options", 5)
	v.SetDefault("skill.disambiguation.max_rounds", 2)
	en := defaultEnglishPhrasing()
	v.SetDefault("skill.languages.en.question_words", en.QuestionWords)
	v.SetDefault("skill.languages.en.question_verbs", en.QuestionVerbs)
	v.SetDefault("skill.languages.en.articles", en.Articles)
	v.SetDefault("storage.session.type", SessionInMemory)
	v.SetDefault("storage.session.ttl", 30*time.Minute)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.namespace", "wikiask")
}

// Default returns the configuration built from defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := finish(v)
	if err != nil {
		// defaults are static; a failure here is a programming error
		panic(err)
	}
	return cfg
}

// LoadConfig loads config from file, falling back to defaults when no file is
// found on the search path. An explicit path that cannot be read is an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("WIKIASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (WIKIASK_*)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.General = cfg.General.Normalize()
	cfg.Knowledge = cfg.Knowledge.Normalize()
	cfg.Skill = cfg.Skill.Normalize()
	cfg.Storage.Session.Type = strings.ToLower(strings.TrimSpace(cfg.Storage.Session.Type))

	if err := cfg.Knowledge.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Skill.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
