package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/learning"
	"github.com/abhisek/explainit/internal/questions"
	"github.com/abhisek/explainit/internal/ui/theme"
)

var questionsCmd = &cobra.Command{
	Use:   "questions <topic> [concept]",
	Short: "Generate explanation questions for a topic or one of its concepts",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		showAnswers, _ := cmd.Flags().GetBool("answers")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			flow, err := env.learningFlow(ctx)
			if err != nil {
				return err
			}
			conceptName := ""
			if len(args) == 2 {
				conceptName = args[1]
			}
			return printQuestions(ctx, cmd.OutOrStdout(), env, flow, args[0], conceptName, showAnswers)
		})
	},
}

func printQuestions(ctx context.Context, w io.Writer, env *appEnv, flow *learning.Flow, topicName, conceptName string, showAnswers bool) error {
	t, err := env.topic(ctx, topicName)
	if err != nil {
		return err
	}
	qs, err := flow.Questions(ctx, t.ID, conceptName)
	if err != nil {
		return err
	}
	for i, q := range qs {
		writeQuestion(w, i+1, q, showAnswers)
	}
	return nil
}

func writeQuestion(w io.Writer, n int, q questions.Question, showAnswers bool) {
	fmt.Fprintf(w, "%s %s\n", theme.Title.Render(fmt.Sprintf("%d.", n)), q.Text)
	if len(q.Concepts) > 0 {
		fmt.Fprintln(w, theme.Hint.Render("   concepts: "+strings.Join(q.Concepts, ", ")))
	}
	if showAnswers {
		fmt.Fprintln(w, theme.Subtitle.Render("   model answer: ")+q.ModelAnswer)
		for _, kp := range q.Rubric.KeyPoints {
			fmt.Fprintln(w, "   • "+kp)
		}
	}
}

func init() {
	questionsCmd.Flags().Bool("answers", false, "Also print model answers and key points")
}
