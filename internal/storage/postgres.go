package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) connString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	return OpenPostgres(config.connString(), logger)
}

// OpenPostgres connects using a libpq connection string or URL and
// applies the embedded schema.
func OpenPostgres(connStr string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	s.logger.Info("Database schema initialized")
	return nil
}

func (s *PostgresStorage) CreateReminder(ctx context.Context, r *models.Reminder) error {
	query := `
		INSERT INTO alarms (session_id, message, scheduled_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, r.SessionID, r.Message, r.ScheduledAt).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListReminders(ctx context.Context, sessionID string) ([]*models.Reminder, error) {
	query := `
		SELECT id, session_id, message, scheduled_at, fired, created_at
		FROM alarms
		WHERE session_id = $1
		ORDER BY scheduled_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders: %w", err)
	}
	defer rows.Close()

	reminders := []*models.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

func (s *PostgresStorage) DeleteReminder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReminderNotFound
	}

	return nil
}

// PopDueReminder selects and deletes in one statement so two pollers never
// receive the same reminder.
func (s *PostgresStorage) PopDueReminder(ctx context.Context, sessionID string, now time.Time) (*models.Reminder, error) {
	query := `
		DELETE FROM alarms
		WHERE id = (
			SELECT id FROM alarms
			WHERE session_id = $1
			  AND fired = false
			  AND scheduled_at <= $2
			ORDER BY scheduled_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, session_id, message, scheduled_at, fired, created_at`

	r, err := scanReminder(s.db.QueryRowContext(ctx, query, sessionID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStorage) AddManualPassage(ctx context.Context, vehicleModel, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_passages (vehicle_model, content) VALUES ($1, $2)`,
		vehicleModel, content)
	if err != nil {
		return fmt.Errorf("error adding manual passage: %w", err)
	}
	return nil
}

// SearchManual matches passages containing any of the query words,
// passages with more matching words first.
func (s *PostgresStorage) SearchManual(ctx context.Context, vehicleModel, query string, limit int) ([]string, error) {
	terms := searchTerms(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + likeEscaper.Replace(t) + "%"
	}

	q := `
		SELECT content
		FROM manual_passages
		WHERE (vehicle_model = $1 OR vehicle_model = '')
		  AND content ILIKE ANY($2)
		ORDER BY (SELECT count(*) FROM unnest($2::text[]) AS p WHERE content ILIKE p) DESC, id ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, vehicleModel, pq.Array(patterns), limit)
	if err != nil {
		return nil, fmt.Errorf("error searching manual: %w", err)
	}
	defer rows.Close()

	var passages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("error scanning manual passage: %w", err)
		}
		passages = append(passages, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manual passages: %w", err)
	}

	return passages, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	r := &models.Reminder{}
	err := row.Scan(&r.ID, &r.SessionID, &r.Message, &r.ScheduledAt, &r.Fired, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning reminder: %w", err)
	}
	return r, nil
}
