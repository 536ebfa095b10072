package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wikiask/internal/disambig"
	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/session"
)

func askCmd() *cobra.Command {
	var more int
	var interactive bool
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question",
		Example: `  wikiask ask "what is the earth"
  wikiask ask --more 2 "who is ada lovelace"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var chooser disambig.Chooser = disambig.AutoChooser{}
			if interactive {
				chooser = disambig.NewPromptChooser(os.Stdin, cmd.OutOrStdout(), "")
			}
			out := skill.WriterSink{W: cmd.OutOrStdout()}
			card := skill.CardSink{W: cmd.ErrOrStderr()}

			sess := session.New("cli")
			sess.Lang = cfg.Knowledge.Language
			reply, sess, err := a.skill.Ask(ctx, sess, strings.Join(args, " "), chooser)
			if perr := skill.Present(ctx, reply, out, card); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			for i := 0; i < more && sess.HasArticle(); i++ {
				reply, sess, err = a.skill.More(ctx, sess)
				if perr := skill.Present(ctx, reply, out, card); perr != nil {
					return perr
				}
				if err != nil {
					return err
				}
				if reply.Outcome == skill.OutcomeExhausted {
					break
				}
			}
			if reply.Outcome == skill.OutcomeNotFound {
				return fmt.Errorf("no article for %q", reply.Topic)
			}
			return nil
		},
	}
	ask.Flags().IntVar(&more, "more", 0, "continue reading this many times")
	ask.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask which article was meant when the topic is ambiguous")
	return ask
}
