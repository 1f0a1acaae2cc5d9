package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/ui/render"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Manage topics",
}

var topicCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		icon, _ := cmd.Flags().GetString("icon")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return createTopic(ctx, cmd.OutOrStdout(), env, args[0], icon)
		})
	},
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return listTopics(ctx, cmd.OutOrStdout(), env)
		})
	},
}

var topicShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a topic's concept tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			t, err := env.topic(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Topic(t))
			return nil
		})
	},
}

var topicDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a topic and all its concepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			t, err := env.topic(ctx, args[0])
			if err != nil {
				return err
			}
			if err := env.topics.Delete(ctx, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted topic %q (%d concepts).\n", t.Name, t.Forest.Len())
			return nil
		})
	},
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *appEnv) error) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, env)
}

func createTopic(ctx context.Context, w io.Writer, env *appEnv, name, icon string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("topic name is required")
	}
	t := concept.NewTopic(name, icon, time.Now())
	if err := env.topics.Create(ctx, t); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created topic %q.\n", t.Name)
	return nil
}

func listTopics(ctx context.Context, w io.Writer, env *appEnv) error {
	topics, err := env.topics.List(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics yet. Create one with: explainit topic create <name>")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-30s  %8s  %8s  %9s  %s\n", "", "Topic", "Concepts", "Scored", "Avg score", "Updated")
	fmt.Fprintln(w, strings.Repeat("─", 86))
	for _, t := range topics {
		var scored int
		var total float64
		t.Forest.Walk(func(c *concept.Concept, _ int) bool {
			if c.Proficiency != nil {
				scored++
				total += c.Proficiency.Score
			}
			return true
		})
		avg := "-"
		if scored > 0 {
			avg = fmt.Sprintf("%.1f", total/float64(scored))
		}
		fmt.Fprintf(w, "%-4s  %-30s  %8d  %8d  %9s  %s\n",
			t.Icon, truncate(t.Name, 30), t.Forest.Len(), scored, avg,
			t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func init() {
	topicCreateCmd.Flags().String("icon", "", "Emoji or short symbol shown next to the topic")

	topicCmd.AddCommand(topicCreateCmd)
	topicCmd.AddCommand(topicListCmd)
	topicCmd.AddCommand(topicShowCmd)
	topicCmd.AddCommand(topicDeleteCmd)
}
