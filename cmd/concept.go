package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/ui/render"
)

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Manage the concepts of a topic",
}

var conceptAddCmd = &cobra.Command{
	Use:   "add <topic> <name>",
	Short: "Add a concept, as a root or under --parent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		definition, _ := cmd.Flags().GetString("definition")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return addConcept(ctx, cmd.OutOrStdout(), env, args[0], args[1], parent, definition)
		})
	},
}

var conceptRemoveCmd = &cobra.Command{
	Use:   "remove <topic> <name>",
	Short: "Remove a concept and its sub-concepts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return removeConcept(ctx, cmd.OutOrStdout(), env, args[0], args[1])
		})
	},
}

var conceptShowCmd = &cobra.Command{
	Use:   "show <topic> <name>",
	Short: "Show a concept's proficiency and history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, _ := cmd.Flags().GetInt("history")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			return showConcept(ctx, cmd.OutOrStdout(), env, args[0], args[1], history)
		})
	},
}

func addConcept(ctx context.Context, w io.Writer, env *appEnv, topicName, name, parentName, definition string) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}

	var parentID *uuid.UUID
	if parentName != "" {
		p, ok := env.hierarchy.FindByName(parentName, &t.Forest)
		if !ok {
			return fmt.Errorf("%w: parent %q", concept.ErrInvalidParentConcept, parentName)
		}
		parentID = &p.ID
	}

	c := concept.New(name)
	c.Definition = definition
	if err := env.hierarchy.Add(c, parentID, &t.Forest); err != nil {
		return err
	}
	if err := env.topics.Save(ctx, t); err != nil {
		return fmt.Errorf("save topic: %w", err)
	}

	added, _ := t.Forest.Get(c.ID)
	crumbs := env.hierarchy.Breadcrumb(added.Metadata.Path, &t.Forest)
	fmt.Fprintf(w, "Added %s (depth %d).\n", strings.Join(crumbs, " › "), added.Metadata.Depth)
	return nil
}

func removeConcept(ctx context.Context, w io.Writer, env *appEnv, topicName, name string) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}
	c, ok := env.hierarchy.FindByName(name, &t.Forest)
	if !ok {
		return fmt.Errorf("%w: %q", concept.ErrConceptNotFound, name)
	}
	removedName := c.Name
	n, err := env.hierarchy.Remove(c.ID, &t.Forest)
	if err != nil {
		return err
	}
	if err := env.topics.Save(ctx, t); err != nil {
		return fmt.Errorf("save topic: %w", err)
	}
	fmt.Fprintf(w, "Removed %q and %d sub-concepts.\n", removedName, n-1)
	return nil
}

func showConcept(ctx context.Context, w io.Writer, env *appEnv, topicName, name string, history int) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}
	c, ok := env.hierarchy.FindByName(name, &t.Forest)
	if !ok {
		return fmt.Errorf("%w: %q", concept.ErrConceptNotFound, name)
	}
	crumbs := env.hierarchy.Breadcrumb(c.Metadata.Path, &t.Forest)
	fmt.Fprintln(w, render.Concept(*c, crumbs, history))
	if p := c.Proficiency; p != nil {
		if d := env.manager.Decayed(p); d < p.Score {
			fmt.Fprintf(w, "Decays to %.1f without practice (last practised %s).\n",
				d, p.LastInteraction.Local().Format("2006-01-02"))
		}
	}

	if subs := t.Forest.Children(c.ID); len(subs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sub-concepts:")
		for _, s := range subs {
			fmt.Fprintf(w, "  %-30s %s\n", s.Name, render.Badge(s.Proficiency))
		}
	}
	return nil
}

func init() {
	conceptAddCmd.Flags().StringP("parent", "p", "", "Name of the parent concept")
	conceptAddCmd.Flags().StringP("definition", "d", "", "Short definition of the concept")
	conceptShowCmd.Flags().IntP("history", "n", 5, "Number of recent interactions to show")

	conceptCmd.AddCommand(conceptAddCmd)
	conceptCmd.AddCommand(conceptRemoveCmd)
	conceptCmd.AddCommand(conceptShowCmd)
}
