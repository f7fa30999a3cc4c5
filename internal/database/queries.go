package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brainwave/internal/domain"
)

func (d *Database) AddSummary(ctx context.Context, summary *domain.Summary) error {
	url := strings.TrimSpace(summary.URL)
	if url == "" {
		return errors.New("summary URL is empty")
	}

	text := strings.TrimSpace(summary.Text)
	if text == "" {
		return errors.New("summary text is empty")
	}

	createdAt := summary.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `insert into summaries (user_id, url, source, summary, created_at)
	values (?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		summary.UserID,
		url,
		summary.Source.String(),
		text,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert ID: %w", err)
	}

	summary.ID = id
	summary.CreatedAt = createdAt

	return nil
}

func (d *Database) GetUserSummaries(
	ctx context.Context,
	userID int64,
	limit int,
) ([]domain.Summary, error) {
	query := `select id, url, source, summary, created_at
	from summaries
	where user_id = ?
	order by created_at desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "GetUserSummaries")
		}
	}()

	var summaries []domain.Summary
	for rows.Next() {
		var (
			s      domain.Summary
			source string
		)
		if err = rows.Scan(&s.ID, &s.URL, &source, &s.Text, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.UserID = userID
		s.Source = parseSource(source)
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// DeleteSummariesBefore removes history older than cutoff and returns the
// number of removed rows.
func (d *Database) DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := "delete from summaries where created_at < ?"

	res, err := d.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return n, nil
}

func parseSource(source string) domain.Source {
	switch source {
	case domain.SourceVideo.String():
		return domain.SourceVideo
	case domain.SourceWebPage.String():
		return domain.SourceWebPage
	default:
		return 0
	}
}
