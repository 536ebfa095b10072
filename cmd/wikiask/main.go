package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mohammad-safakhou/wikiask/config"
)

var (
	cfgPath string
	verbose bool
	lang    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wikiask",
	Short: "Answer \"tell me about X\" questions from an encyclopedia",
	Long: `wikiask looks topics up in Wikipedia (or a local page file), reads
the opening of the best article aloud and continues on request.

Run without arguments to start an interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		if lang != "" {
			cfg.Knowledge.Language = lang
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.General.LogLevel)
		if err != nil {
			level = zapcore.InfoLevel
		}
		if verbose || cfg.General.Debug {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "encyclopedia language code")

	rootCmd.AddCommand(serveCmd(), askCmd(), randomCmd(), chatCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
