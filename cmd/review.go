package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/review"
	"github.com/abhisek/explainit/internal/store"
	"github.com/abhisek/explainit/internal/ui/render"
)

var reviewCmd = &cobra.Command{
	Use:   "review <topic>",
	Short: "Review progress on a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetDuration("since")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return runReview(ctx, cmd.OutOrStdout(), env, args[0], time.Now().Add(-since))
		})
	},
}

func runReview(ctx context.Context, w io.Writer, env *appEnv, topicName string, since time.Time) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}

	events, err := env.events.QueryInteractions(ctx, nil, store.QueryOpts{From: since})
	if err != nil {
		return fmt.Errorf("query interactions: %w", err)
	}
	seen := make(map[string]bool)
	var practised []string
	for _, e := range events {
		if e.TopicID != t.ID || seen[e.ConceptName] {
			continue
		}
		if _, ok := t.Forest.Get(e.ConceptID); !ok {
			continue
		}
		seen[e.ConceptName] = true
		practised = append(practised, e.ConceptName)
	}

	progress := review.Progress(&t.Forest)
	fmt.Fprintln(w, render.Review(progress, practised, review.Suggestions(progress)))
	return nil
}

func init() {
	reviewCmd.Flags().Duration("since", 7*24*time.Hour, "Window for recently practised concepts")
}
