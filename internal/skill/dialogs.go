package skill

import (
	"strings"
)

// Dialog keys.
const (
	DialogNotFound       = "not_found"
	DialogUnavailable    = "source_unavailable"
	DialogExhausted      = "exhausted"
	DialogNoContext      = "no_context"
	DialogDisambiguation = "disambiguation"
	DialogDeclined       = "declined"
	DialogEmpty          = "empty_article"
	DialogOr             = "or"
)

var defaultDialogs = map[string]string{
	DialogNotFound:       "I couldn't find an encyclopedia entry for {topic}.",
	DialogUnavailable:    "I can't reach the encyclopedia right now. Please try again later.",
	DialogExhausted:      "That's all I have about {title}.",
	DialogNoContext:      "Ask me about something first, then I can tell you more.",
	DialogDisambiguation: "{topic} could mean {options}. Which one did you mean?",
	DialogDeclined:       "Okay, never mind.",
	DialogEmpty:          "I found {title}, but there is nothing I can read out.",
	DialogOr:             "or",
}

// Dialogs renders the phrases spoken for outcomes that carry no article text.
type Dialogs struct {
	phrases map[string]string
}

// NewDialogs returns the English phrases with overrides applied.
func NewDialogs(overrides map[string]string) Dialogs {
	phrases := make(map[string]string, len(defaultDialogs))
	for k, v := range defaultDialogs {
		phrases[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			phrases[strings.ToLower(k)] = v
		}
	}
	return Dialogs{phrases: phrases}
}

// Render fills {name} placeholders from vars. Unknown keys render as the key.
func (d Dialogs) Render(key string, vars map[string]string) string {
	phrase, ok := d.phrases[key]
	if !ok {
		phrase, ok = defaultDialogs[key]
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return phrase
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(phrase)
}

// List joins options as "a, b or c".
func (d Dialogs) List(options []string) string {
	switch len(options) {
	case 0:
		return ""
	case 1:
		return options[0]
	}
	or := d.Render(DialogOr, nil)
	return strings.Join(options[:len(options)-1], ", ") + " " + or + " " + options[len(options)-1]
}
