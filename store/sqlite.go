package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/opinionsim/agent"
	"github.com/hupe1980/opinionsim/simulation"

	_ "modernc.org/sqlite"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer; also keeps :memory: on one connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save writes the run and its reactions in one transaction, replacing any
// previous run with the same id.
func (s *SQLiteStore) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM reactions WHERE run_id = ?`,
		`DELETE FROM run_agents WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, run.ID); err != nil {
			return fmt.Errorf("failed to clear run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, model, stimuli_count, memory_decay, impact_scale)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeFormat),
		run.FinishedAt.UTC().Format(timeFormat),
		nullString(run.Model),
		run.StimuliCount,
		run.MemoryDecay,
		run.ImpactScale,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, name := range agentNames(run) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_agents (run_id, position, agent_name) VALUES (?, ?, ?)`,
			run.ID, i, name); err != nil {
			return fmt.Errorf("failed to insert agent %s: %w", name, err)
		}
	}

	if run.Output != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO reactions (run_id, seq, agent_name, topic_category, reaction, sentiment_shift, action, reason, cumulative_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare reaction insert: %w", err)
		}
		defer stmt.Close()

		for seq, r := range run.Output.RawLogs {
			if _, err := stmt.ExecContext(ctx,
				run.ID, seq, r.AgentName, string(r.TopicCategory), r.Reaction,
				r.SentimentShift, string(r.Action), r.Reason, r.CumulativeScore); err != nil {
				return fmt.Errorf("failed to insert reaction %d: %w", seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get loads a run and rebuilds its trajectories from the stored reactions.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run               Run
		started, finished string
		modelName         sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, model, stimuli_count, memory_decay, impact_scale
		 FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &started, &finished, &modelName, &run.StimuliCount, &run.MemoryDecay, &run.ImpactScale)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Model = modelName.String
	run.StartedAt, _ = time.Parse(timeFormat, started)
	run.FinishedAt, _ = time.Parse(timeFormat, finished)

	agents, err := s.agents(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Agents = agents

	out := &simulation.Output{
		RawLogs:      []agent.Reaction{},
		Trajectories: make(map[string][]float64, len(agents)),
	}
	for _, name := range agents {
		out.Trajectories[name] = []float64{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_name, topic_category, reaction, sentiment_shift, action, reason, cumulative_score
		 FROM reactions WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r             agent.Reaction
			topic, action string
			text, reason  sql.NullString
		)
		if err := rows.Scan(&r.AgentName, &topic, &text, &r.SentimentShift, &action, &reason, &r.CumulativeScore); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		r.TopicCategory = agent.Topic(topic)
		r.Action = agent.Action(action)
		r.Reaction = text.String
		r.Reason = reason.String

		out.RawLogs = append(out.RawLogs, r)
		out.Trajectories[r.AgentName] = append(out.Trajectories[r.AgentName], r.CumulativeScore)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reactions: %w", err)
	}

	run.Output = out
	return &run, nil
}

func (s *SQLiteStore) agents(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_name FROM run_agents WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, name)
	}
	return agents, rows.Err()
}

// List returns summaries of all stored runs, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.model, r.stimuli_count,
		       (SELECT COUNT(*) FROM run_agents a WHERE a.run_id = r.id),
		       (SELECT COUNT(*) FROM reactions x WHERE x.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum       Summary
			started   string
			modelName sql.NullString
		)
		if err := rows.Scan(&sum.ID, &started, &modelName, &sum.StimuliCount, &sum.Agents, &sum.Reactions); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.StartedAt, _ = time.Parse(timeFormat, started)
		sum.Model = modelName.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
