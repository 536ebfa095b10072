package main

import (
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wikiask/internal/skill"
	"github.com/mohammad-safakhou/wikiask/session"
)

func randomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Read the opening of a random article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			sess := session.New("cli")
			sess.Lang = cfg.Knowledge.Language
			reply, _, err := a.skill.Random(ctx, sess)
			if perr := skill.Present(ctx, reply, skill.WriterSink{W: cmd.OutOrStdout()}, skill.CardSink{W: cmd.ErrOrStderr()}); perr != nil {
				return perr
			}
			return err
		},
	}
}
