package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	sqlschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/explainit/ent/schema"
)

const (
	topicsTable       = "topics"
	llmEventsTable    = "llm_request_events"
	interactionsTable = "interaction_events"
)

var definitions = []struct {
	name   string
	schema ent.Interface
}{
	{topicsTable, schema.Topic{}},
	{llmEventsTable, schema.LLMRequestEvent{}},
	{interactionsTable, schema.InteractionEvent{}},
}

// migrationTables describes the ent schemas as migration tables, the same
// shape entc writes to migrate/schema.go. Mixin fields come first, and a
// schema without an id field gets an auto-increment integer key.
func migrationTables() ([]*sqlschema.Table, error) {
	tables := make([]*sqlschema.Table, 0, len(definitions))
	for _, d := range definitions {
		fields, indexes := collect(d.schema)

		t := &sqlschema.Table{Name: d.name}
		if !hasField(fields, "id") {
			t.Columns = append(t.Columns, &sqlschema.Column{Name: "id", Type: field.TypeInt, Increment: true})
		}
		for _, f := range fields {
			if f.Err != nil {
				return nil, fmt.Errorf("%s.%s: %w", d.name, f.Name, f.Err)
			}
			t.Columns = append(t.Columns, column(f))
		}
		t.PrimaryKey = []*sqlschema.Column{columnNamed(t, "id")}

		for _, idx := range indexes {
			ix := &sqlschema.Index{
				Name:   d.name + "_" + strings.Join(idx.Fields, "_"),
				Unique: idx.Unique,
			}
			for _, name := range idx.Fields {
				c := columnNamed(t, name)
				if c == nil {
					return nil, fmt.Errorf("%s: index on unknown column %q", d.name, name)
				}
				ix.Columns = append(ix.Columns, c)
			}
			t.Indexes = append(t.Indexes, ix)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func collect(s ent.Interface) ([]*field.Descriptor, []*indexDescriptor) {
	var fields []*field.Descriptor
	var indexes []*indexDescriptor
	for _, m := range s.Mixin() {
		for _, f := range m.Fields() {
			fields = append(fields, f.Descriptor())
		}
		for _, i := range m.Indexes() {
			d := i.Descriptor()
			indexes = append(indexes, &indexDescriptor{Fields: d.Fields, Unique: d.Unique})
		}
	}
	for _, f := range s.Fields() {
		fields = append(fields, f.Descriptor())
	}
	for _, i := range s.Indexes() {
		d := i.Descriptor()
		indexes = append(indexes, &indexDescriptor{Fields: d.Fields, Unique: d.Unique})
	}
	return fields, indexes
}

type indexDescriptor struct {
	Fields []string
	Unique bool
}

func hasField(fields []*field.Descriptor, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func columnNamed(t *sqlschema.Table, name string) *sqlschema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// column maps an ent field to a migration column. Only constant defaults
// reach the table; function defaults such as time.Now are applied by the
// repositories.
func column(f *field.Descriptor) *sqlschema.Column {
	c := &sqlschema.Column{
		Name:       f.Name,
		Type:       f.Info.Type,
		SchemaType: f.SchemaType,
		Size:       int64(f.Size),
		Unique:     f.Unique,
		Nullable:   f.Nillable || f.Optional,
		Comment:    f.Comment,
	}
	switch f.Default.(type) {
	case string, int, int64, float64, bool:
		c.Default = f.Default
	}
	return c
}

// migrate brings the database up to the ent schemas. It adds tables,
// columns and indexes and never drops anything.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	tables, err := migrationTables()
	if err != nil {
		return fmt.Errorf("describe schema: %w", err)
	}
	m, err := sqlschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("prepare migration: %w", err)
	}
	return m.Create(ctx, tables...)
}
