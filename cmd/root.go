package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "explainit",
	Short: "Learn by explaining",
	Long: "explainit asks you to explain concepts in your own words, grades the explanation " +
		"and tracks how well you know every concept of a topic.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides EXPLAINIT_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides EXPLAINIT_CONFIG env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(defineCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
