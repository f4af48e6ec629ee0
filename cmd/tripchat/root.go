package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TRIPSESSION"

func newRootCmd() *cobra.Command {
	v := viper.New()
	a := &app{v: v}

	rootCmd := &cobra.Command{
		Use:   "tripchat",
		Short: "tripchat - travel planning chat over a bounded session",
		Long: `tripchat keeps a bounded conversation with a tool calling model and shows
what the model is doing ("Searching flights") while it works.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("env-file", ".env", "Load environment variables from this file when present")
	flags.String("log-level", "", "Set log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (pretty|text|json)")
	flags.String("provider", "", "Model provider (gemini|anthropic|openai|mock)")
	flags.String("model", "", "Model name")
	flags.String("store", "", "Session store driver (memory|sqlite)")
	flags.String("db", "", "SQLite database path")
	flags.Int("window", 0, "Maximum number of retained turns")
	flags.String("render-style", "", "Terminal markdown style (auto|dark|light|notty|ascii)")

	// TRIPSESSION_LOG_LEVEL, TRIPSESSION_DB, ... override flag defaults.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	rootCmd.AddCommand(
		newChatCmd(a),
		newReplayCmd(a),
		newShowCmd(a),
		newExportCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tripchat v%s\n", version)
		},
	}
}
