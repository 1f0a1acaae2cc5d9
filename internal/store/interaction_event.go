package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

func (r *eventRepo) AppendInteraction(ctx context.Context, data InteractionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	feedbackID := ""
	if data.FeedbackID != nil {
		feedbackID = data.FeedbackID.String()
	}

	query, args := builder().Insert(interactionsTable).
		Columns(interactionColumns[1:]...).
		Values(
			seqNum, r.now().UTC().UnixNano(), data.TopicID.String(), data.ConceptID.String(),
			data.ConceptName, data.InteractionType, data.ScoreImpact, data.ScoreAfter,
			data.Confidence, feedbackID, data.Details,
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save interaction event: %w", err)
	}
	return nil
}

var interactionColumns = []string{
	"id", "sequence", "timestamp", "topic_id", "concept_id", "concept_name",
	"interaction_type", "score_impact", "score_after", "confidence",
	"feedback_id", "details",
}

func (r *eventRepo) QueryInteractions(ctx context.Context, conceptID *uuid.UUID, opts QueryOpts) ([]InteractionEventRecord, error) {
	b := builder()
	sel := b.Select(interactionColumns...).From(b.Table(interactionsTable)).OrderBy(entsql.Desc("sequence"))
	if conceptID != nil {
		sel.Where(entsql.EQ("concept_id", conceptID.String()))
	}
	applyOpts(sel, opts)

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query interaction events: %w", err)
	}
	defer rows.Close()

	var records []InteractionEventRecord
	for rows.Next() {
		var (
			rec                    InteractionEventRecord
			ts                     int64
			topicID, cid, feedback string
		)
		err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &topicID, &cid, &rec.ConceptName,
			&rec.InteractionType, &rec.ScoreImpact, &rec.ScoreAfter, &rec.Confidence,
			&feedback, &rec.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan interaction event: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts).UTC()
		rec.TopicID, _ = uuid.Parse(topicID)
		rec.ConceptID, _ = uuid.Parse(cid)
		if fid, err := uuid.Parse(feedback); err == nil {
			rec.FeedbackID = &fid
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
