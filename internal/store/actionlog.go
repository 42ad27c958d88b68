package store

import (
	"database/sql"
	"time"
)

// LogEntry is one discrete action recorded during a session.
type LogEntry struct {
	ID        int64
	SessionID string
	Kind      string
	Gesture   string
	X, Y      int
	Ticks     int
	Detail    string
	CreatedAt time.Time
}

// ActionLogRepository appends to and reads the action log.
type ActionLogRepository struct {
	db *sql.DB
}

// ActionLog returns the action log repository for this store.
func (s *Store) ActionLog() *ActionLogRepository {
	return &ActionLogRepository{db: s.db}
}

// Append inserts an entry. CreatedAt is set when zero.
func (r *ActionLogRepository) Append(e *LogEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO action_log (session_id, kind, gesture, x, y, ticks, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Kind, e.Gesture, e.X, e.Y, e.Ticks, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's entries in insertion order.
func (r *ActionLogRepository) ListBySession(sessionID string) ([]*LogEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, gesture, x, y, ticks, detail, created_at
		 FROM action_log WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		e := &LogEntry{}
		err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Gesture, &e.X, &e.Y, &e.Ticks, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// CountByKind returns how many entries of each kind a session holds.
func (r *ActionLogRepository) CountByKind(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM action_log WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// Prune deletes entries older than the cutoff and returns how many went.
func (r *ActionLogRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM action_log WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
