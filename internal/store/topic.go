package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/explainit/internal/concept"
)

var topicColumns = []string{"id", "name", "icon", "forest", "created_at", "updated_at"}

// TopicRepo persists topics with their concept forests. Every load returns
// an independent copy; Save overwrites the stored forest (last write wins).
type TopicRepo struct {
	drv *entsql.Driver
	now func() time.Time
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Create inserts a new topic. Topic names are unique, ignoring case.
func (r *TopicRepo) Create(ctx context.Context, t concept.Topic) error {
	if _, err := r.LoadByName(ctx, t.Name); err == nil {
		return fmt.Errorf("%w: %q", concept.ErrTopicExists, t.Name)
	}
	if t.Forest.Nodes == nil {
		t.Forest = concept.NewForest()
	}
	forest, err := json.Marshal(t.Forest)
	if err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	now := r.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	query, args := builder().Insert(topicsTable).
		Columns("id", "name", "name_key", "icon", "forest", "created_at", "updated_at").
		Values(t.ID.String(), t.Name, nameKey(t.Name), t.Icon, string(forest), t.CreatedAt.UnixNano(), now.UnixNano()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// Load returns the topic with the given id.
func (r *TopicRepo) Load(ctx context.Context, id uuid.UUID) (concept.Topic, error) {
	return r.loadOne(ctx, entsql.EQ("id", id.String()), id.String())
}

// LoadByName returns the topic with the given name, ignoring case.
func (r *TopicRepo) LoadByName(ctx context.Context, name string) (concept.Topic, error) {
	return r.loadOne(ctx, entsql.EQ("name_key", nameKey(name)), name)
}

func (r *TopicRepo) loadOne(ctx context.Context, where *entsql.Predicate, label string) (concept.Topic, error) {
	b := builder()
	query, args := b.Select(topicColumns...).From(b.Table(topicsTable)).Where(where).Limit(1).Query()
	topics, err := r.query(ctx, query, args)
	if err != nil {
		return concept.Topic{}, err
	}
	if len(topics) == 0 {
		return concept.Topic{}, fmt.Errorf("%w: %s", concept.ErrTopicNotFound, label)
	}
	return topics[0], nil
}

// List returns every topic, oldest first.
func (r *TopicRepo) List(ctx context.Context) ([]concept.Topic, error) {
	b := builder()
	query, args := b.Select(topicColumns...).From(b.Table(topicsTable)).OrderBy("created_at", "name").Query()
	return r.query(ctx, query, args)
}

// Save overwrites a stored topic. Root concept names must stay unique.
func (r *TopicRepo) Save(ctx context.Context, t concept.Topic) error {
	if err := checkRootNames(&t.Forest); err != nil {
		return err
	}
	if other, err := r.LoadByName(ctx, t.Name); err == nil && other.ID != t.ID {
		return fmt.Errorf("%w: %q", concept.ErrTopicExists, t.Name)
	}

	forest, err := json.Marshal(t.Forest)
	if err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}

	query, args := builder().Update(topicsTable).
		Set("name", t.Name).
		Set("name_key", nameKey(t.Name)).
		Set("icon", t.Icon).
		Set("forest", string(forest)).
		Set("updated_at", r.now().UTC().UnixNano()).
		Where(entsql.EQ("id", t.ID.String())).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", concept.ErrTopicNotFound, t.ID)
	}
	return nil
}

// Delete removes a topic and its forest.
func (r *TopicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := builder().Delete(topicsTable).Where(entsql.EQ("id", id.String())).Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", concept.ErrTopicNotFound, id)
	}
	return nil
}

func (r *TopicRepo) query(ctx context.Context, query string, args []any) ([]concept.Topic, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var topics []concept.Topic
	for rows.Next() {
		var (
			id, forest       string
			t                concept.Topic
			created, updated int64
		)
		if err := rows.Scan(&id, &t.Name, &t.Icon, &forest, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("topic id %q: %w", id, err)
		}
		t.ID = parsed
		if err := json.Unmarshal([]byte(forest), &t.Forest); err != nil {
			return nil, fmt.Errorf("decode forest of %q: %w", t.Name, err)
		}
		if t.Forest.Nodes == nil {
			t.Forest.Nodes = make(map[uuid.UUID]*concept.Concept)
		}
		t.CreatedAt = time.Unix(0, created).UTC()
		t.UpdatedAt = time.Unix(0, updated).UTC()
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func checkRootNames(f *concept.Forest) error {
	seen := make(map[string]bool, len(f.Roots))
	for _, root := range f.RootNodes() {
		key := nameKey(root.Name)
		if seen[key] {
			return fmt.Errorf("%w: root %q", concept.ErrConceptAlreadyExists, root.Name)
		}
		seen[key] = true
	}
	return nil
}
