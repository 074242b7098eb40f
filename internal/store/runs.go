package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/cellgen/pkg/core"
)

const runColumns = `id, model, path, hash, model_type, states, variables, equations, profiles, errors, warnings, created_at`

// RecordRun stores run and its issues. An empty ID or CreatedAt is filled in.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return errNotOpened
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Errors = run.Issues.Count(core.SeverityError)
	run.Warnings = run.Issues.Count(core.SeverityWarning)

	s.logger.DebugContext(ctx, "recording run",
		slog.String("id", run.ID),
		slog.String("model", run.Model),
		slog.Int("issues", len(run.Issues)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.Path, run.Hash, run.Type,
		run.States, run.Variables, run.Equations,
		strings.Join(run.Profiles, ","), run.Errors, run.Warnings, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, issue := range run.Issues {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_issues (run_id, position, severity, code, description, item_kind, component, name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, issue.Severity.String(), string(issue.Code), issue.Description,
			issue.Item.Kind.String(), issue.Item.Component, issue.Item.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run and its issues by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.Issues, err = s.issues(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun returns the most recent run of the document at path, or nil
// when it was never recorded.
func (s *SQLiteStore) LatestRun(ctx context.Context, path string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE path = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, path)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit, newest
// first. Issues are not loaded.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) issues(ctx context.Context, runID string) (core.Issues, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, code, description, item_kind, component, name
		 FROM run_issues WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issues: %w", err)
	}
	defer rows.Close()

	var issues core.Issues
	for rows.Next() {
		var severity, code, kind string
		var issue core.Issue
		if err := rows.Scan(&severity, &code, &issue.Description, &kind, &issue.Item.Component, &issue.Item.Name); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Severity, _ = core.ParseSeverity(severity)
		issue.Code = core.ReferenceCode(code)
		issue.Item.Kind, _ = core.ParseItemKind(kind)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var profiles string
	err := row.Scan(&run.ID, &run.Model, &run.Path, &run.Hash, &run.Type,
		&run.States, &run.Variables, &run.Equations, &profiles,
		&run.Errors, &run.Warnings, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if profiles != "" {
		run.Profiles = strings.Split(profiles, ",")
	}
	return run, nil
}
