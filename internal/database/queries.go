package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
)

// LoadTables reads the saved profile tables
func (db *DB) LoadTables(ctx context.Context) (*profile.Tables, error) {
	t := profile.EmptyTables()

	var prior float64
	err := db.QueryRowContext(ctx, `
		SELECT total_pos, total_neg, prior FROM model_meta WHERE id = 1
	`).Scan(&t.Model.TotalPos, &t.Model.TotalNeg, &prior)
	if err == sql.ErrNoRows {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	t.Model.Prior = float32(prior)

	if err := db.loadTags(ctx, t); err != nil {
		return nil, err
	}
	if err := db.loadReactions(ctx, t); err != nil {
		return nil, err
	}
	if err := db.loadModelTags(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (db *DB) loadTags(ctx context.Context, t *profile.Tables) error {
	rows, err := db.QueryContext(ctx, `SELECT name, id FROM tags`)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var id uint32
		if err := rows.Scan(&name, &id); err != nil {
			return fmt.Errorf("%w: tag row: %w", profile.ErrCorruptProfile, err)
		}
		t.Tags[name] = id
	}
	return rows.Err()
}

func (db *DB) loadReactions(ctx context.Context, t *profile.Tables) error {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, post_id, favorited, upvoted FROM reactions ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("failed to read reactions: %w", err)
	}
	defer rows.Close()

	bySeq := make(map[int64]int)
	for rows.Next() {
		var seq int64
		var p profile.ReactedPost
		if err := rows.Scan(&seq, &p.PostID, &p.Reaction.Favorited, &p.Reaction.Upvoted); err != nil {
			return fmt.Errorf("%w: reaction row: %w", profile.ErrCorruptProfile, err)
		}
		p.Tags = []uint32{}
		bySeq[seq] = len(t.Reactions)
		t.Reactions = append(t.Reactions, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := db.QueryContext(ctx, `
		SELECT reaction_seq, tag_id FROM reaction_tags ORDER BY reaction_seq, position
	`)
	if err != nil {
		return fmt.Errorf("failed to read reaction tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var seq int64
		var tagID uint32
		if err := tagRows.Scan(&seq, &tagID); err != nil {
			return fmt.Errorf("%w: reaction tag row: %w", profile.ErrCorruptProfile, err)
		}
		i, ok := bySeq[seq]
		if !ok {
			return fmt.Errorf("%w: tag row for missing reaction %d", profile.ErrCorruptProfile, seq)
		}
		t.Reactions[i].Tags = append(t.Reactions[i].Tags, tagID)
	}
	return tagRows.Err()
}

func (db *DB) loadModelTags(ctx context.Context, t *profile.Tables) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tag_id, freq_pos, freq_neg, log_pos, log_neg FROM model_tags ORDER BY tag_id
	`)
	if err != nil {
		return fmt.Errorf("failed to read model tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tagID int
		var f profile.Frequency
		var logPos, logNeg float64
		if err := rows.Scan(&tagID, &f.Pos, &f.Neg, &logPos, &logNeg); err != nil {
			return fmt.Errorf("%w: model row: %w", profile.ErrCorruptProfile, err)
		}
		if tagID != len(t.Model.LogProbs) {
			return fmt.Errorf("%w: model row for tag %d out of sequence", profile.ErrCorruptProfile, tagID)
		}
		t.Model.Frequencies = append(t.Model.Frequencies, f)
		t.Model.LogProbs = append(t.Model.LogProbs, profile.LogProb{
			Pos: float32(logPos),
			Neg: float32(logNeg),
		})
	}
	return rows.Err()
}

// SaveTables replaces the saved profile with t in a single transaction
func (db *DB) SaveTables(ctx context.Context, t *profile.Tables) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"reaction_tags", "reactions", "tags", "model_tags", "model_meta"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if err := saveTags(ctx, tx, t.Tags); err != nil {
			return err
		}
		if err := saveReactions(ctx, tx, t.Reactions); err != nil {
			return err
		}
		if err := saveModel(ctx, tx, t.Model); err != nil {
			return err
		}
		return nil
	})
}

func saveTags(ctx context.Context, tx *sql.Tx, tags map[string]uint32) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tags (name, id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, id := range tags {
		if _, err := stmt.ExecContext(ctx, name, int64(id)); err != nil {
			return fmt.Errorf("failed to save tag %q: %w", name, err)
		}
	}
	return nil
}

func saveReactions(ctx context.Context, tx *sql.Tx, reactions []profile.ReactedPost) error {
	postStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reactions (seq, post_id, favorited, upvoted) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer postStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reaction_tags (reaction_seq, position, tag_id) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer tagStmt.Close()

	for seq, p := range reactions {
		if _, err := postStmt.ExecContext(ctx, seq, int64(p.PostID),
			boolToInt(p.Reaction.Favorited), boolToInt(p.Reaction.Upvoted)); err != nil {
			return fmt.Errorf("failed to save reaction %d: %w", p.PostID, err)
		}
		for pos, tagID := range p.Tags {
			if _, err := tagStmt.ExecContext(ctx, seq, pos, int64(tagID)); err != nil {
				return fmt.Errorf("failed to save tags of reaction %d: %w", p.PostID, err)
			}
		}
	}
	return nil
}

func saveModel(ctx context.Context, tx *sql.Tx, m profile.ModelTable) error {
	if len(m.Frequencies) != len(m.LogProbs) {
		return fmt.Errorf("model has %d frequency rows but %d probability rows", len(m.Frequencies), len(m.LogProbs))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO model_tags (tag_id, freq_pos, freq_neg, log_pos, log_neg) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, f := range m.Frequencies {
		lp := m.LogProbs[id]
		if _, err := stmt.ExecContext(ctx, id, int64(f.Pos), int64(f.Neg),
			float64(lp.Pos), float64(lp.Neg)); err != nil {
			return fmt.Errorf("failed to save model row %d: %w", id, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO model_meta (id, total_pos, total_neg, prior, updated_at) VALUES (1, ?, ?, ?, ?)
	`, int64(m.TotalPos), int64(m.TotalNeg), float64(m.Prior), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save model totals: %w", err)
	}
	return nil
}

// SaveRawPosts replaces the cached raw posts with the given dump
func (db *DB) SaveRawPosts(ctx context.Context, posts []source.RawPost) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM raw_posts`); err != nil {
			return fmt.Errorf("failed to clear raw posts: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO raw_posts (seq, post_id, tags, is_up, is_fav) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for seq, p := range posts {
			tags := p.Tags
			if tags == nil {
				tags = []string{}
			}
			encoded, err := json.Marshal(tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags of post %d: %w", p.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, seq, int64(p.ID), string(encoded),
				boolToInt(p.IsUpvoted), boolToInt(p.IsFavorited)); err != nil {
				return fmt.Errorf("failed to cache post %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// LoadRawPosts returns the cached raw posts in fetch order
func (db *DB) LoadRawPosts(ctx context.Context) ([]source.RawPost, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT post_id, tags, is_up, is_fav FROM raw_posts ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw posts: %w", err)
	}
	defer rows.Close()

	var posts []source.RawPost
	for rows.Next() {
		var p source.RawPost
		var tags string
		if err := rows.Scan(&p.ID, &tags, &p.IsUpvoted, &p.IsFavorited); err != nil {
			return nil, fmt.Errorf("failed to read raw post: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of post %d: %w", p.ID, err)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// GetProfileInfo returns summary information about the saved profile
func (db *DB) GetProfileInfo(ctx context.Context) (*ProfileInfo, error) {
	info := &ProfileInfo{}

	err := db.QueryRowContext(ctx, `SELECT updated_at FROM model_meta WHERE id = 1`).Scan(&info.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}

	if err := db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM tags), (SELECT COUNT(*) FROM reactions)
	`).Scan(&info.Tags, &info.Reactions); err != nil {
		return nil, err
	}

	return info, nil
}

// RecordSearch stores a search run and its ranked results
func (db *DB) RecordSearch(ctx context.Context, s *Search, results []SearchResult) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now()
	s.ResultCount = len(results)

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO searches (id, query, page_limit, result_count, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, s.ID, s.Query, s.PageLimit, s.ResultCount, s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record search: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO search_results (search_id, rank, post_id, score) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.ExecContext(ctx, s.ID, r.Rank, int64(r.PostID), float64(r.Score)); err != nil {
				return fmt.Errorf("failed to record search result: %w", err)
			}
		}
		return nil
	})
}

// ListSearches returns the most recent searches first
func (db *DB) ListSearches(ctx context.Context, limit int) ([]Search, error) {
	query := `
		SELECT id, query, page_limit, result_count, created_at
		FROM searches ORDER BY created_at DESC, rowid DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		s := Search{}
		if err := rows.Scan(&s.ID, &s.Query, &s.PageLimit, &s.ResultCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}

	return searches, rows.Err()
}

// GetSearchResults returns the ranked results of a recorded search
func (db *DB) GetSearchResults(ctx context.Context, searchID string) ([]SearchResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rank, post_id, score FROM search_results
		WHERE search_id = ? ORDER BY rank
	`, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		r := SearchResult{}
		var score float64
		if err := rows.Scan(&r.Rank, &r.PostID, &score); err != nil {
			return nil, err
		}
		r.Score = float32(score)
		results = append(results, r)
	}

	return results, rows.Err()
}
