package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent is one provider call, successful or not. The llm
// commands aggregate these for usage and cost reports.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LLMRequestEvent) Fields() []ent.Field {
	fields := []ent.Field{
		field.String("provider").Default(""),
		field.String("model").Default("").Comment("model id reported by the provider"),
		field.String("purpose").Default(""),
	}
	for _, name := range []string{"input_tokens", "output_tokens"} {
		fields = append(fields, field.Int(name).Default(0))
	}
	return append(fields,
		field.Int64("latency_ms").Default(0),
		field.Bool("success").Default(false),
		field.String("error_message").Default(""),
		field.Text("request_body").Default(""),
		field.Text("response_body").Default("").Comment("raw model output, also kept for failed calls"),
	)
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{index.Fields("purpose"), index.Fields("model")}
}
