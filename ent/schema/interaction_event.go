package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// InteractionEvent records one proficiency change of a concept.
type InteractionEvent struct {
	ent.Schema
}

func (InteractionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (InteractionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("topic_id").
			NotEmpty(),
		field.String("concept_id").
			NotEmpty(),
		field.String("concept_name").
			Default(""),
		field.String("interaction_type").
			NotEmpty().
			Comment("explanation, quiz, review, decay or indirect"),
		field.Float("score_impact"),
		field.Float("score_after"),
		field.Float("confidence"),
		field.String("feedback_id").
			Default(""),
		field.String("details").
			Default(""),
	}
}

func (InteractionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("concept_id", "sequence"),
	}
}
