// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/conceptlens/backend/internal/domain/concept"
	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/gap"
	"github.com/conceptlens/backend/internal/domain/mastery"
	"github.com/conceptlens/backend/internal/domain/student"
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    class_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id);

CREATE TABLE IF NOT EXISTS concepts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS concept_prerequisites (
    concept_id TEXT NOT NULL,
    prerequisite_id TEXT NOT NULL,
    PRIMARY KEY (concept_id, prerequisite_id),
    FOREIGN KEY (concept_id) REFERENCES concepts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    captured_at TEXT NOT NULL,
    thinking_answer TEXT NOT NULL,
    thinking_seconds INTEGER NOT NULL,
    thinking_attempts INTEGER NOT NULL,
    thinking_correctness TEXT NOT NULL,
    confusion TEXT NOT NULL,
    mistake TEXT NOT NULL,
    confidence INTEGER NOT NULL,
    application_answer TEXT NOT NULL,
    application_seconds INTEGER NOT NULL,
    application_correctness TEXT NOT NULL,
    FOREIGN KEY (student_id) REFERENCES students(id),
    FOREIGN KEY (concept_id) REFERENCES concepts(id)
);

CREATE INDEX IF NOT EXISTS idx_evidence_pair ON evidence(student_id, concept_id, captured_at);

CREATE TABLE IF NOT EXISTS concept_mastery (
    student_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    level TEXT NOT NULL,
    trend TEXT NOT NULL,
    evidence_count INTEGER NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (student_id, concept_id)
);

CREATE TABLE IF NOT EXISTS gap_insights (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    gap_type TEXT NOT NULL,
    severity TEXT NOT NULL,
    description TEXT NOT NULL,
    suggested_action TEXT NOT NULL,
    detected_at TEXT NOT NULL,
    resolved_at TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_gap_open
    ON gap_insights(student_id, concept_id, gap_type)
    WHERE resolved_at IS NULL;
`

// SQLiteStore persists the engine's inputs and outputs. The unique
// partial index on open gap insights makes InsertInsightIfAbsent a true
// conditional insert even under concurrent sweeps.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite serializes writers anyway, and a pool of
	// one keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, err
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

// ============================================================================
// Students
// ============================================================================

func (s *SQLiteStore) SaveStudent(ctx context.Context, st *student.Student) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO students (id, name, class_id) VALUES (?, ?, ?)",
		st.ID, st.Name, st.ClassID,
	)
	return err
}

func (s *SQLiteStore) GetStudent(ctx context.Context, id string) (*student.Student, error) {
	var st student.Student
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, class_id FROM students WHERE id = ?", id,
	).Scan(&st.ID, &st.Name, &st.ClassID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStore) ListStudentsByClass(ctx context.Context, classID string) ([]*student.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, class_id FROM students WHERE class_id = ? ORDER BY name", classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		var st student.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.ClassID); err != nil {
			return nil, err
		}
		students = append(students, &st)
	}
	return students, rows.Err()
}

// ============================================================================
// Concepts
// ============================================================================

func (s *SQLiteStore) SaveConcept(ctx context.Context, c *concept.Concept) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO concepts (id, name) VALUES (?, ?)", c.ID, c.Name,
	); err != nil {
		return err
	}

	for _, prereq := range c.Prerequisites {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO concept_prerequisites (concept_id, prerequisite_id) VALUES (?, ?)",
			c.ID, prereq,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetConcept(ctx context.Context, id string) (*concept.Concept, error) {
	var c concept.Concept
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM concepts WHERE id = ?", id,
	).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT prerequisite_id FROM concept_prerequisites WHERE concept_id = ?", id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var prereq string
		if err := rows.Scan(&prereq); err != nil {
			return nil, err
		}
		c.Prerequisites = append(c.Prerequisites, prereq)
	}
	return &c, rows.Err()
}

func (s *SQLiteStore) ListConcepts(ctx context.Context) ([]*concept.Concept, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM concepts ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*concept.Concept)
	var concepts []*concept.Concept
	for rows.Next() {
		var c concept.Concept
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		byID[c.ID] = &c
		concepts = append(concepts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prereqRows, err := s.db.QueryContext(ctx,
		"SELECT concept_id, prerequisite_id FROM concept_prerequisites",
	)
	if err != nil {
		return nil, err
	}
	defer prereqRows.Close()

	for prereqRows.Next() {
		var conceptID, prereq string
		if err := prereqRows.Scan(&conceptID, &prereq); err != nil {
			return nil, err
		}
		if c, ok := byID[conceptID]; ok {
			c.Prerequisites = append(c.Prerequisites, prereq)
		}
	}
	return concepts, prereqRows.Err()
}

// ============================================================================
// Evidence
// ============================================================================

func (s *SQLiteStore) AppendEvidence(ctx context.Context, ev evidence.Evidence) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence (
			id, student_id, concept_id, captured_at,
			thinking_answer, thinking_seconds, thinking_attempts, thinking_correctness,
			confusion, mistake, confidence,
			application_answer, application_seconds, application_correctness
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.StudentID, ev.ConceptID, formatTime(ev.Timestamp),
		ev.ThinkingAnswer, ev.ThinkingSeconds, ev.ThinkingAttempts, string(ev.ThinkingCorrectness),
		ev.Confusion, ev.Mistake, ev.Confidence,
		ev.ApplicationAnswer, ev.ApplicationSeconds, string(ev.ApplicationCorrectness),
	)
	return err
}

const evidenceColumns = `
	id, student_id, concept_id, captured_at,
	thinking_answer, thinking_seconds, thinking_attempts, thinking_correctness,
	confusion, mistake, confidence,
	application_answer, application_seconds, application_correctness`

func scanEvidence(rows *sql.Rows) (evidence.Evidence, error) {
	var ev evidence.Evidence
	var capturedAt, thinkingCorrectness, applicationCorrectness string
	if err := rows.Scan(
		&ev.ID, &ev.StudentID, &ev.ConceptID, &capturedAt,
		&ev.ThinkingAnswer, &ev.ThinkingSeconds, &ev.ThinkingAttempts, &thinkingCorrectness,
		&ev.Confusion, &ev.Mistake, &ev.Confidence,
		&ev.ApplicationAnswer, &ev.ApplicationSeconds, &applicationCorrectness,
	); err != nil {
		return evidence.Evidence{}, err
	}

	ts, err := parseTime(capturedAt)
	if err != nil {
		return evidence.Evidence{}, fmt.Errorf("evidence %s: %w", ev.ID, err)
	}
	ev.Timestamp = ts
	ev.ThinkingCorrectness = evidence.Correctness(thinkingCorrectness)
	ev.ApplicationCorrectness = evidence.Correctness(applicationCorrectness)
	return ev, nil
}

func (s *SQLiteStore) listEvidence(ctx context.Context, query string, args ...any) ([]evidence.Evidence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []evidence.Evidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, ev)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) ListEvidence(ctx context.Context, studentID, conceptID string) ([]evidence.Evidence, error) {
	return s.listEvidence(ctx,
		"SELECT"+evidenceColumns+` FROM evidence
		WHERE student_id = ? AND concept_id = ?
		ORDER BY captured_at, id`,
		studentID, conceptID,
	)
}

func (s *SQLiteStore) ListEvidenceByStudent(ctx context.Context, studentID string) ([]evidence.Evidence, error) {
	return s.listEvidence(ctx,
		"SELECT"+evidenceColumns+` FROM evidence
		WHERE student_id = ?
		ORDER BY captured_at, id`,
		studentID,
	)
}

func (s *SQLiteStore) ListEvidencePairs(ctx context.Context) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT student_id, concept_id FROM evidence ORDER BY student_id, concept_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.StudentID, &p.ConceptID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// ============================================================================
// Mastery
// ============================================================================

func (s *SQLiteStore) UpsertMastery(ctx context.Context, m mastery.ConceptMastery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO concept_mastery (student_id, concept_id, score, level, trend, evidence_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, concept_id) DO UPDATE SET
			score = excluded.score,
			level = excluded.level,
			trend = excluded.trend,
			evidence_count = excluded.evidence_count,
			updated_at = excluded.updated_at`,
		m.StudentID, m.ConceptID, m.Score, string(m.Level), string(m.Trend),
		m.EvidenceCount, formatTime(m.UpdatedAt),
	)
	return err
}

func scanMastery(scan func(...any) error) (mastery.ConceptMastery, error) {
	var m mastery.ConceptMastery
	var level, trend, updatedAt string
	if err := scan(&m.StudentID, &m.ConceptID, &m.Score, &level, &trend, &m.EvidenceCount, &updatedAt); err != nil {
		return mastery.ConceptMastery{}, err
	}
	ts, err := parseTime(updatedAt)
	if err != nil {
		return mastery.ConceptMastery{}, err
	}
	m.Level = mastery.Level(level)
	m.Trend = mastery.Trend(trend)
	m.UpdatedAt = ts
	return m, nil
}

func (s *SQLiteStore) GetMastery(ctx context.Context, studentID, conceptID string) (mastery.ConceptMastery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, concept_id, score, level, trend, evidence_count, updated_at
		FROM concept_mastery WHERE student_id = ? AND concept_id = ?`,
		studentID, conceptID,
	)
	m, err := scanMastery(row.Scan)
	if err == sql.ErrNoRows {
		return mastery.ConceptMastery{}, ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) ListMasteryByStudent(ctx context.Context, studentID string) ([]mastery.ConceptMastery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, concept_id, score, level, trend, evidence_count, updated_at
		FROM concept_mastery WHERE student_id = ? ORDER BY concept_id`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []mastery.ConceptMastery
	for rows.Next() {
		m, err := scanMastery(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ============================================================================
// Gap insights
// ============================================================================

func (s *SQLiteStore) InsertInsightIfAbsent(ctx context.Context, in gap.Insight) (bool, error) {
	// The partial unique index on open insights turns the conflict
	// clause into "insert only if no unresolved row of this type".
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gap_insights (id, student_id, concept_id, gap_type, severity, description, suggested_action, detected_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT (student_id, concept_id, gap_type) WHERE resolved_at IS NULL DO NOTHING`,
		in.ID, in.StudentID, in.ConceptID, string(in.Type), string(in.Severity),
		in.Description, in.SuggestedAction, formatTime(in.DetectedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanInsight(rows *sql.Rows) (gap.Insight, error) {
	var in gap.Insight
	var gapType, severity, detectedAt string
	var resolvedAt sql.NullString
	if err := rows.Scan(
		&in.ID, &in.StudentID, &in.ConceptID, &gapType, &severity,
		&in.Description, &in.SuggestedAction, &detectedAt, &resolvedAt,
	); err != nil {
		return gap.Insight{}, err
	}

	ts, err := parseTime(detectedAt)
	if err != nil {
		return gap.Insight{}, err
	}
	in.Type = gap.Type(gapType)
	in.Severity = gap.Severity(severity)
	in.DetectedAt = ts

	if resolvedAt.Valid {
		rts, err := parseTime(resolvedAt.String)
		if err != nil {
			return gap.Insight{}, err
		}
		in.ResolvedAt = &rts
	}
	return in, nil
}

func (s *SQLiteStore) listInsights(ctx context.Context, query string, args ...any) ([]gap.Insight, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []gap.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

const insightColumns = "id, student_id, concept_id, gap_type, severity, description, suggested_action, detected_at, resolved_at"

func (s *SQLiteStore) ListUnresolvedInsights(ctx context.Context, studentID, conceptID string) ([]gap.Insight, error) {
	return s.listInsights(ctx,
		"SELECT "+insightColumns+` FROM gap_insights
		WHERE student_id = ? AND concept_id = ? AND resolved_at IS NULL
		ORDER BY detected_at, id`,
		studentID, conceptID,
	)
}

func (s *SQLiteStore) ListInsightsByStudent(ctx context.Context, studentID string) ([]gap.Insight, error) {
	return s.listInsights(ctx,
		"SELECT "+insightColumns+` FROM gap_insights
		WHERE student_id = ?
		ORDER BY detected_at, id`,
		studentID,
	)
}

func (s *SQLiteStore) ResolveInsight(ctx context.Context, insightID string, resolvedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE gap_insights SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL",
		formatTime(resolvedAt), insightID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
