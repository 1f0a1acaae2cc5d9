package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/definitions"
	"github.com/abhisek/explainit/internal/ui/theme"
)

var defineCmd = &cobra.Command{
	Use:   "define <topic> <concept>...",
	Short: "Look up concept definitions",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			svc, done, err := env.definitionService(ctx)
			if err != nil {
				return err
			}
			defer done()
			return runDefine(ctx, cmd.OutOrStdout(), env, svc, args[0], args[1:], save)
		})
	},
}

// runDefine prints definitions and, with save, stores them on concepts of
// the topic that have none yet.
func runDefine(ctx context.Context, w io.Writer, env *appEnv, svc *definitions.Service, topicName string, names []string, save bool) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}
	defs, err := svc.LookupAll(ctx, names, t.Name)
	if err != nil {
		return err
	}

	updated := 0
	for _, d := range defs {
		fmt.Fprintln(w, theme.Title.Render(d.Concept))
		fmt.Fprintln(w, d.Text)
		for _, ex := range d.Examples {
			fmt.Fprintln(w, theme.Hint.Render("  e.g. "+ex))
		}
		fmt.Fprintln(w)

		if !save {
			continue
		}
		if c, ok := env.hierarchy.FindByName(d.Concept, &t.Forest); ok && c.Definition == "" {
			c.Definition = d.Text
			updated++
		}
	}

	if updated > 0 {
		if err := env.topics.Save(ctx, t); err != nil {
			return fmt.Errorf("save topic: %w", err)
		}
		fmt.Fprintf(w, "Saved %d definitions to %q.\n", updated, t.Name)
	}
	return nil
}

func init() {
	defineCmd.Flags().Bool("save", false, "Store definitions on concepts that have none")
}
