package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/explainit/internal/concept"
	"github.com/abhisek/explainit/internal/config"
	"github.com/abhisek/explainit/internal/llm"
	"github.com/abhisek/explainit/internal/store"
)

func newTestEnv(t *testing.T, responses ...llm.MockResponse) (*appEnv, *llm.MockProvider) {
	t.Helper()
	env, err := newEnv(config.Default(), filepath.Join(t.TempDir(), "explainit.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(env.Close)

	mock := llm.NewMockProvider(responses...)
	env.provider = llm.WithLogging(mock, llm.ProviderMock, env.events, nil)
	return env, mock
}

func jsonResponse(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return llm.MockResponse{Content: data, Usage: llm.Usage{InputTokens: 100, OutputTokens: 40}}
}

func segment(feedback, name string, isNew bool) map[string]any {
	return map[string]any{
		"text":                  "about " + name,
		"feedback_type":         feedback,
		"explanation":           "noted",
		"concept":               name,
		"key_points_addressed":  []string{},
		"criteria_matched":      []string{},
		"is_new_concept":        isNew,
		"related_to_concept_id": "",
		"definition":            "",
	}
}

func gradingResponse(t *testing.T, segments ...map[string]any) llm.MockResponse {
	return jsonResponse(t, map[string]any{"segments": segments})
}

func questionResponse(t *testing.T, text string) llm.MockResponse {
	return jsonResponse(t, map[string]any{"questions": []map[string]any{{
		"text":         text,
		"model_answer": "The derivative is the instantaneous rate of change.",
		"concepts":     []string{"Derivatives"},
		"rubric": map[string]any{
			"key_points":        []string{"rate of change"},
			"required_concepts": []string{"Derivatives"},
			"grading_criteria": []map[string]any{
				{"description": "mentions rate of change", "weight": 1.0, "examples": []string{"slope"}},
			},
		},
	}}})
}

// seedCalculus creates Calculus > Derivatives.
func seedCalculus(t *testing.T, env *appEnv) {
	t.Helper()
	ctx := context.Background()
	var out bytes.Buffer
	require.NoError(t, createTopic(ctx, &out, env, "Calculus", "∫"))
	require.NoError(t, addConcept(ctx, &out, env, "Calculus", "Calculus", "", "Study of change"))
	require.NoError(t, addConcept(ctx, &out, env, "Calculus", "Derivatives", "Calculus", ""))
}

func TestTopicAndConceptCommands(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, createTopic(ctx, &out, env, "Calculus", "∫"))
	assert.ErrorIs(t, createTopic(ctx, &out, env, "calculus", ""), concept.ErrTopicExists)
	assert.Error(t, createTopic(ctx, &out, env, "  ", ""))

	require.NoError(t, addConcept(ctx, &out, env, "Calculus", "Limits", "", ""))
	require.NoError(t, addConcept(ctx, &out, env, "Calculus", "Continuity", "limits", ""))
	assert.Contains(t, out.String(), "Added Limits › Continuity (depth 1).")

	assert.ErrorIs(t, addConcept(ctx, &out, env, "Calculus", "Limits", "", ""), concept.ErrConceptAlreadyExists)
	assert.ErrorIs(t, addConcept(ctx, &out, env, "Calculus", "Epsilon", "Nope", ""), concept.ErrInvalidParentConcept)
	assert.ErrorIs(t, addConcept(ctx, &out, env, "Physics", "Force", "", ""), concept.ErrTopicNotFound)

	out.Reset()
	require.NoError(t, listTopics(ctx, &out, env))
	assert.Contains(t, out.String(), "Calculus")
	assert.Regexp(t, `Calculus\s+2\s+0\s+-`, out.String())

	out.Reset()
	require.NoError(t, showConcept(ctx, &out, env, "Calculus", "Limits", 5))
	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Not practised yet.")
	assert.Contains(t, plain, "Continuity")

	out.Reset()
	require.NoError(t, removeConcept(ctx, &out, env, "Calculus", "limits"))
	assert.Contains(t, out.String(), `Removed "Limits" and 1 sub-concepts.`)

	topic, err := env.topics.LoadByName(ctx, "Calculus")
	require.NoError(t, err)
	assert.Zero(t, topic.Forest.Len())
}

func TestListTopics_Empty(t *testing.T) {
	env, _ := newTestEnv(t)
	var out bytes.Buffer
	require.NoError(t, listTopics(context.Background(), &out, env))
	assert.Contains(t, out.String(), "No topics yet")
}

func TestRunExplain_WithGivenQuestion(t *testing.T) {
	env, mock := newTestEnv(t)
	seedCalculus(t, env)
	mock.AddResponse(gradingResponse(t,
		segment("correct", "Derivatives", false),
		segment("correct", "Chain Rule", true),
	))

	flow, err := env.learningFlow(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	err = runExplain(context.Background(), strings.NewReader(""), &out, env, flow, explainArgs{
		topic:    "Calculus",
		concept:  "Derivatives",
		question: "What is a derivative?",
		answer:   "It measures change; the chain rule composes them.",
	})
	require.NoError(t, err)

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "✓ correct")
	assert.Contains(t, plain, "Added to topic")
	assert.Contains(t, plain, "+ Calculus › Derivatives › Chain Rule")
	assert.Contains(t, plain, "Explore related topics")

	topic, err := env.topics.LoadByName(context.Background(), "Calculus")
	require.NoError(t, err)
	assert.Equal(t, 3, topic.Forest.Len())

	d, ok := env.hierarchy.FindByName("Derivatives", &topic.Forest)
	require.True(t, ok)
	require.NotNil(t, d.Proficiency)
	assert.Greater(t, d.Proficiency.Score, 0.0)

	root, _ := env.hierarchy.FindByName("Calculus", &topic.Forest)
	require.NotNil(t, root.Proficiency)
	assert.Equal(t, concept.InteractionIndirect, root.Proficiency.Interactions[0].Type)

	interactions, err := env.events.QueryInteractions(context.Background(), nil, storeOpts())
	require.NoError(t, err)
	assert.Len(t, interactions, 2)

	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, llm.PurposeGrading, lastPurpose(t, env))

	env.manager.Now = func() time.Time { return time.Now().Add(21 * 24 * time.Hour) }
	out.Reset()
	require.NoError(t, showConcept(context.Background(), &out, env, "Calculus", "Derivatives", 5))
	plain = ansi.Strip(out.String())
	assert.Contains(t, plain, "Decays to")
	assert.Contains(t, plain, "Chain Rule")
}

func TestRunExplain_GeneratesQuestionAndReadsStdin(t *testing.T) {
	env, mock := newTestEnv(t)
	seedCalculus(t, env)
	mock.AddResponse(questionResponse(t, "Explain derivatives to a friend."))
	mock.AddResponse(gradingResponse(t, segment("incorrect", "Derivatives", false)))

	flow, err := env.learningFlow(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	err = runExplain(context.Background(), strings.NewReader("  It is the area under a curve.\n"), &out, env, flow, explainArgs{
		topic:   "Calculus",
		concept: "Derivatives",
	})
	require.NoError(t, err)

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Explain derivatives to a friend.")
	assert.Contains(t, plain, "✗ incorrect")
	assert.Contains(t, plain, "No improvements yet")

	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "It is the area under a curve.", responseSent(mock.Calls[1]))
}

func TestRunExplain_EmptyStdin(t *testing.T) {
	env, _ := newTestEnv(t)
	seedCalculus(t, env)
	flow, err := env.learningFlow(context.Background())
	require.NoError(t, err)

	err = runExplain(context.Background(), strings.NewReader("\n"), &bytes.Buffer{}, env, flow, explainArgs{
		topic: "Calculus", concept: "Derivatives", question: "Why?",
	})
	assert.Error(t, err)
}

func TestRunDefine_Save(t *testing.T) {
	env, _ := newTestEnv(t,
		jsonResponse(t, map[string]any{"definition": "Rate of change of a function", "examples": []string{"velocity"}}),
	)
	seedCalculus(t, env)
	svc, done, err := env.definitionService(context.Background())
	require.NoError(t, err)
	defer done()

	var out bytes.Buffer
	require.NoError(t, runDefine(context.Background(), &out, env, svc, "Calculus", []string{"Derivatives"}, true))
	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Rate of change of a function")
	assert.Contains(t, plain, "e.g. velocity")
	assert.Contains(t, plain, `Saved 1 definitions to "Calculus".`)

	topic, err := env.topics.LoadByName(context.Background(), "Calculus")
	require.NoError(t, err)
	d, _ := env.hierarchy.FindByName("Derivatives", &topic.Forest)
	assert.Equal(t, "Rate of change of a function", d.Definition)
}

func TestRunReview(t *testing.T) {
	env, mock := newTestEnv(t)
	seedCalculus(t, env)
	mock.AddResponse(gradingResponse(t, segment("correct", "Derivatives", false)))
	flow, err := env.learningFlow(context.Background())
	require.NoError(t, err)
	require.NoError(t, runExplain(context.Background(), nil, &bytes.Buffer{}, env, flow, explainArgs{
		topic: "Calculus", concept: "Derivatives", question: "What?", answer: "Slopes.",
	}))

	var out bytes.Buffer
	require.NoError(t, runReview(context.Background(), &out, env, "calculus", time.Now().Add(-time.Hour)))
	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Improved Concepts")
	assert.Contains(t, plain, "• Derivatives")
	assert.Contains(t, plain, "• Calculus")
	assert.Contains(t, plain, "Review weak concepts")
}

func TestLLMEventCommands(t *testing.T) {
	env, mock := newTestEnv(t)
	seedCalculus(t, env)
	mock.AddResponse(gradingResponse(t, segment("correct", "Derivatives", false)))
	flow, err := env.learningFlow(context.Background())
	require.NoError(t, err)
	require.NoError(t, runExplain(context.Background(), nil, &bytes.Buffer{}, env, flow, explainArgs{
		topic: "Calculus", concept: "Derivatives", question: "What?", answer: "Slopes.",
	}))

	ctx := context.Background()
	var out bytes.Buffer
	require.NoError(t, listLLMEvents(ctx, &out, env.events, 10, ""))
	assert.Contains(t, out.String(), "grading")

	out.Reset()
	require.NoError(t, listLLMEvents(ctx, &out, env.events, 10, "definition"))
	assert.NotContains(t, out.String(), "grading  ")

	events, err := env.events.QueryLLMEvents(ctx, storeOpts())
	require.NoError(t, err)
	require.Len(t, events, 1)

	out.Reset()
	require.NoError(t, viewLLMEvent(ctx, &out, env.events, events[0].ID))
	assert.Contains(t, out.String(), "Purpose:   grading")
	assert.Contains(t, out.String(), "What?")
	assert.Contains(t, out.String(), `"segments"`)
	assert.Error(t, viewLLMEvent(ctx, &out, env.events, events[0].ID+100))

	out.Reset()
	require.NoError(t, llmStats(ctx, &out, env.events))
	assert.Contains(t, out.String(), "Usage by Purpose")
	assert.Contains(t, out.String(), "Pricing unavailable for: mock")
}

func TestLLMStats_Empty(t *testing.T) {
	env, _ := newTestEnv(t)
	var out bytes.Buffer
	require.NoError(t, llmStats(context.Background(), &out, env.events))
	assert.Contains(t, out.String(), "No LLM usage recorded yet.")
}

func TestTruncateAndFormatCost(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "∫∫", truncate("∫∫", 5))
	assert.Equal(t, "$0.0012", formatCost(0.00123))
	assert.Equal(t, "$1.50", formatCost(1.5))
}

func storeOpts() store.QueryOpts { return store.QueryOpts{} }

func lastPurpose(t *testing.T, env *appEnv) string {
	t.Helper()
	events, err := env.events.QueryLLMEvents(context.Background(), store.QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	return events[0].Purpose
}

// responseSent extracts the learner response from a grading request.
func responseSent(req llm.Request) string {
	msg := req.Messages[0].Content
	const marker = "Learner response:\n"
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.Index(rest, "\n\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func TestVersionCommand(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })
	version = "v1.2.3"

	var out strings.Builder
	versionCmd.SetOut(&out)
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	assert.Equal(t, "explainit v1.2.3\n", out.String())
}
