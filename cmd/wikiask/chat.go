package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/wikiask/internal/disambig"
	"github.com/mohammad-safakhou/wikiask/internal/knowledge"
	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/session"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Hold a conversation on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd)
		},
	}
}

// runChat reads one utterance per line. "more", "random" and "quit" are
// commands; when a disambiguation question is pending the next line answers
// it, unless it is a new question.
func runChat(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.sessions.EnsureSession(ctx, "")
	if err != nil {
		return err
	}
	sess.Lang = cfg.Knowledge.Language

	out := cmd.OutOrStdout()
	speech := skill.WriterSink{W: out}
	card := skill.CardSink{W: out}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var reply skill.Reply
		var next session.Context
		switch strings.ToLower(line) {
		case "quit", "exit", "stop":
			return a.sessions.DropSession(ctx, sess.ID)
		case "more", "tell me more", "continue":
			reply, next, err = a.skill.More(ctx, sess)
		case "random", "surprise me":
			reply, next, err = a.skill.Random(ctx, sess)
		default:
			if sess.Pending != nil {
				reply, next, err = a.skill.Choose(ctx, sess, line)
			} else {
				reply, next, err = a.skill.Ask(ctx, sess, line, disambig.DeferredChooser{})
			}
		}
		if err != nil && !knowledge.IsUnavailable(err) {
			return err
		}
		if err != nil {
			logger.Warn("encyclopedia unavailable", zap.Error(err))
		}
		sess = next
		if err := a.sessions.SaveSession(ctx, sess); err != nil {
			return err
		}
		if err := skill.Present(ctx, reply, speech, card); err != nil {
			return err
		}
		if len(reply.Options) > 0 {
			for i, o := range reply.Options {
				fmt.Fprintf(out, "  %d. %s\n", i+1, o)
			}
		}
	}
}
