package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/learning"
	"github.com/abhisek/explainit/internal/questions"
	"github.com/abhisek/explainit/internal/review"
	"github.com/abhisek/explainit/internal/ui/render"
	"github.com/abhisek/explainit/internal/ui/theme"
)

var explainCmd = &cobra.Command{
	Use:   "explain <topic> <concept>",
	Short: "Explain a concept and get graded feedback",
	Long: "Explain a concept in your own words. Without --question a question is generated; " +
		"without --answer the explanation is read from stdin.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		answer, _ := cmd.Flags().GetString("answer")
		return withEnv(cmd, func(ctx context.Context, env *appEnv) error {
			flow, err := env.learningFlow(ctx)
			if err != nil {
				return err
			}
			return runExplain(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), env, flow, explainArgs{
				topic:    args[0],
				concept:  args[1],
				question: question,
				answer:   answer,
			})
		})
	},
}

type explainArgs struct {
	topic, concept   string
	question, answer string
}

func runExplain(ctx context.Context, in io.Reader, w io.Writer, env *appEnv, flow *learning.Flow, a explainArgs) error {
	t, err := env.topic(ctx, a.topic)
	if err != nil {
		return err
	}

	q := questions.Question{Text: a.question, Concepts: []string{a.concept}}
	if q.Text == "" {
		qs, err := flow.Questions(ctx, t.ID, a.concept)
		if err != nil {
			return fmt.Errorf("generate question: %w", err)
		}
		q = qs[0]
	}

	response := a.answer
	if response == "" {
		fmt.Fprintln(w, theme.Title.Render(q.Text))
		fmt.Fprintln(w, theme.Hint.Render("Type your explanation, then press Ctrl-D."))
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read explanation: %w", err)
		}
		response = strings.TrimSpace(string(data))
	}

	out, err := flow.Explain(ctx, learning.ExplainInput{
		TopicID:     t.ID,
		ConceptName: a.concept,
		Question:    q,
		Response:    response,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, render.Feedback(out.Analysis))
	fmt.Fprintln(w)
	fmt.Fprintln(w, render.Result(out.Concept.Name, out.Result))
	if len(out.Added) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Section.Render("Added to topic"))
		for _, c := range out.Added {
			crumbs := env.hierarchy.Breadcrumb(c.Metadata.Path, &out.Topic.Forest)
			fmt.Fprintln(w, "+ "+strings.Join(crumbs, " › "))
		}
	}

	progress := review.Progress(&out.Topic.Forest)
	fmt.Fprintln(w)
	fmt.Fprintln(w, render.Review(progress, review.NewConcepts([]grading.Analysis{out.Analysis}), review.Suggestions(progress)))
	return nil
}

func init() {
	explainCmd.Flags().StringP("question", "q", "", "Question to answer instead of a generated one")
	explainCmd.Flags().StringP("answer", "a", "", "Explanation text (default: read from stdin)")
}
