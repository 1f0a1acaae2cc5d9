// Package render formats domain values for the terminal.
package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/tree"
	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/grading"
	"github.com/abhisek/explainit/internal/proficiency"
	"github.com/abhisek/explainit/internal/review"
	"github.com/abhisek/explainit/internal/ui/theme"
)

const barWidth = 20

// Bar renders a horizontal bar for a score in [0, 100].
func Bar(score float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(float64(width) * score / concept.MaxScore)
	filled = max(0, min(width, filled))
	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled))
}

// Badge renders a concept's mastery, or "unscored".
func Badge(p *concept.Proficiency) string {
	if p == nil {
		return theme.Hint.Render("unscored")
	}
	level := p.MasteryLevel()
	return theme.Level(level).Render(fmt.Sprintf("%s %.0f", level, p.Score))
}

// Topic draws the topic's concept forest as a tree.
func Topic(t concept.Topic) string {
	title := t.Name
	if t.Icon != "" {
		title = t.Icon + " " + title
	}
	root := tree.Root(theme.Title.Render(title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(theme.TreeBranch)

	for _, c := range t.Forest.RootNodes() {
		root.Child(conceptTree(c, &t.Forest, map[uuid.UUID]bool{}))
	}
	if t.Forest.Len() == 0 {
		root.Child(theme.Hint.Render("no concepts yet"))
	}
	return root.String()
}

func conceptTree(c *concept.Concept, forest *concept.Forest, onPath map[uuid.UUID]bool) any {
	label := theme.Body.Render(c.Name) + "  " + Badge(c.Proficiency)
	children := forest.Children(c.ID)
	if len(children) == 0 || onPath[c.ID] {
		return label
	}
	onPath[c.ID] = true
	defer delete(onPath, c.ID)

	t := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(theme.TreeBranch)
	for _, child := range children {
		t.Child(conceptTree(child, forest, onPath))
	}
	return t
}

// Concept renders a concept card with its breadcrumb and recent history.
func Concept(c concept.Concept, breadcrumb []string, history int) string {
	var b strings.Builder
	fmt.Fprintln(&b, theme.Title.Render(c.Name))
	if len(breadcrumb) > 1 {
		fmt.Fprintln(&b, theme.Subtitle.Render(strings.Join(breadcrumb, " › ")))
	}
	if c.Definition != "" {
		fmt.Fprintln(&b, theme.Body.Render(c.Definition))
	}

	fmt.Fprintln(&b)
	p := c.Proficiency
	if p == nil {
		fmt.Fprintln(&b, theme.Hint.Render("Not practised yet."))
		return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
	}

	level := p.MasteryLevel()
	fmt.Fprintf(&b, "%s%s %s\n", theme.Label.Render("Score"), Bar(p.Score, barWidth), theme.Level(level).Render(fmt.Sprintf("%.1f", p.Score)))
	fmt.Fprintf(&b, "%s%.0f%%\n", theme.Label.Render("Confidence"), p.Confidence*100)
	fmt.Fprintf(&b, "%s%s\n", theme.Label.Render("Mastery"), theme.Level(level).Render(string(level)))
	fmt.Fprintln(&b, theme.Hint.Render(level.Description()))

	if recent := p.Recent(history); len(recent) > 0 {
		fmt.Fprintln(&b, theme.Section.Render("History"))
		for i := len(recent) - 1; i >= 0; i-- {
			in := recent[i]
			fmt.Fprintf(&b, "%s  %-11s %s  %s\n",
				in.Date.Local().Format("2006-01-02"),
				in.Type,
				Delta(in.ScoreImpact),
				theme.Hint.Render(in.Details))
		}
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

// Delta renders a signed score change.
func Delta(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v < 0 {
		return theme.Loss.Render(s)
	}
	return theme.Gain.Render(s)
}

func feedbackMark(t grading.FeedbackType) string {
	switch t {
	case grading.FeedbackCorrect:
		return theme.Correct.Render("✓ correct")
	case grading.FeedbackPartiallyCorrect:
		return theme.Partial.Render("~ partial")
	case grading.FeedbackIncorrect:
		return theme.Incorrect.Render("✗ incorrect")
	default:
		return theme.Irrelevant.Render("· irrelevant")
	}
}

// Feedback lists the graded segments of an analysis.
func Feedback(a grading.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", theme.Section.Render("Feedback"), theme.Hint.Render(fmt.Sprintf("(grade %.0f%%)", a.OverallGrade*100)))
	if len(a.Segments) == 0 {
		fmt.Fprintln(&b, theme.Hint.Render("Nothing to grade."))
	}
	for _, s := range a.Segments {
		head := feedbackMark(s.Type)
		if s.Concept != "" {
			head += "  " + theme.Body.Render(s.Concept)
		}
		if s.IsNewConcept {
			head += "  " + theme.Partial.Render("new")
		}
		fmt.Fprintln(&b, head)
		if s.Text != "" {
			fmt.Fprintln(&b, lipgloss.NewStyle().PaddingLeft(2).Render(theme.Hint.Render("“"+s.Text+"”")))
		}
		if s.Explanation != "" {
			fmt.Fprintln(&b, lipgloss.NewStyle().PaddingLeft(2).Render(theme.Body.Render(s.Explanation)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Result summarizes a proficiency update.
func Result(name string, r proficiency.Result) string {
	var b strings.Builder
	fmt.Fprintln(&b, theme.Section.Render("Proficiency"))
	fmt.Fprintf(&b, "%-24s %s → %s  %s\n", name, Delta(r.ScoreImpact),
		theme.Level(concept.LevelForScore(r.Score)).Render(fmt.Sprintf("%.1f", r.Score)),
		theme.Hint.Render(fmt.Sprintf("confidence %.0f%%", r.Confidence*100)))
	for _, a := range r.Ancestors {
		if a.Err != nil {
			fmt.Fprintf(&b, "%-24s %s\n", a.Name, theme.Incorrect.Render("update failed: "+a.Err.Error()))
			continue
		}
		fmt.Fprintf(&b, "%-24s %s → %.1f\n", strings.Repeat("↑", a.Distance)+" "+a.Name, Delta(a.Impact), a.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Review renders improvements, discovered concepts and suggestions.
func Review(progress []review.ConceptProgress, newConcepts, suggestions []string) string {
	var b strings.Builder

	fmt.Fprintln(&b, theme.Section.Render("Improved Concepts"))
	if len(progress) == 0 {
		fmt.Fprintln(&b, theme.Hint.Render("No improvements yet"))
	}
	for _, p := range progress {
		fmt.Fprintf(&b, "%-24s %s %.0f → %s  %s\n",
			p.Name,
			Bar(p.CurrentScore, barWidth),
			p.PreviousScore,
			theme.Level(p.Level).Render(fmt.Sprintf("%.0f", p.CurrentScore)),
			Delta(p.Improvement()))
	}

	if len(newConcepts) > 0 {
		fmt.Fprintln(&b, theme.Section.Render("Concepts Encountered"))
		for _, n := range newConcepts {
			fmt.Fprintln(&b, "• "+n)
		}
	}

	fmt.Fprintln(&b, theme.Section.Render("Suggested Next Steps"))
	for _, s := range suggestions {
		fmt.Fprintln(&b, "→ "+s)
	}
	return strings.TrimRight(b.String(), "\n")
}
