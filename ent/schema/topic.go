package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// unixNanos stores times as integer unix nanoseconds, which is how the
// repositories write them.
var unixNanos = map[string]string{dialect.SQLite: "integer"}

// Topic is a named concept forest. The forest is stored as one JSON
// document and rewritten on every save.
type Topic struct {
	ent.Schema
}

func (Topic) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("name_key").
			Unique().
			Comment("Lowercased name, used for case-insensitive lookup"),
		field.String("icon").
			Default(""),
		field.Text("forest").
			Comment("JSON encoded concept forest"),
		field.Time("created_at").
			Immutable().
			SchemaType(unixNanos),
		field.Time("updated_at").
			SchemaType(unixNanos),
	}
}
