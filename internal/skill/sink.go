package skill

import (
	"context"
	"fmt"
	"io"

	"github.com/mohammad-safakhou/wikiask/models"
)

// SpeechSink speaks plain text.
type SpeechSink interface {
	Speak(ctx context.Context, text string) error
}

// DisplaySink renders a card. A disconnected display is skipped.
type DisplaySink interface {
	Show(ctx context.Context, d models.Display) error
	Connected() bool
}

// Present forwards a reply to the sinks. Either sink may be nil.
func Present(ctx context.Context, r Reply, speech SpeechSink, display DisplaySink) error {
	if speech != nil && r.Speech != "" {
		if err := speech.Speak(ctx, r.Speech); err != nil {
			return fmt.Errorf("speak: %w", err)
		}
	}
	if display == nil || r.Display == nil || r.Display.Empty() || !display.Connected() {
		return nil
	}
	if err := display.Show(ctx, *r.Display); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// WriterSink speaks by writing lines to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Speak(_ context.Context, text string) error {
	_, err := fmt.Fprintln(s.W, text)
	return err
}

// CardSink writes a short text card for each display payload.
type CardSink struct {
	W io.Writer
}

func (s CardSink) Connected() bool { return s.W != nil }

func (s CardSink) Show(_ context.Context, d models.Display) error {
	if d.ImageURL != "" {
		_, err := fmt.Fprintf(s.W, "[%s] %s\n", d.Title, d.ImageURL)
		return err
	}
	_, err := fmt.Fprintf(s.W, "[%s]\n", d.Title)
	return err
}
