package llm

import "context"

// Purposes label requests in logs and in the llm usage reports.
const (
	PurposeGrading     = "grading"
	PurposeQuestionGen = "question-gen"
	PurposeDefinition  = "definition"
)

type purposeKey struct{}

func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	purpose, _ := ctx.Value(purposeKey{}).(string)
	if purpose == "" {
		return "unknown"
	}
	return purpose
}
