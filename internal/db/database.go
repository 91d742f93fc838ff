package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RichardoC/pad-chat/internal/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned when a referenced conversation does not exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// New opens a SQLite database at dbPath.
func New(dbPath string) (*Database, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects with the given driver and applies the schema.
func Open(driver, dsn string) (*Database, error) {
	stmts, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == DriverSQLite && !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=1"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &Database{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// CreateConversation inserts a conversation together with its default settings.
func (db *Database) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := db.now()
	conv := &models.Conversation{Title: title, CreatedAt: now, UpdatedAt: now}
	err = tx.QueryRowContext(ctx, `
        INSERT INTO conversations (title, created_at, updated_at)
        VALUES ($1, $2, $3)
        RETURNING id`, title, now, now).Scan(&conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	defaults := models.DefaultSettings(conv.ID)
	_, err = tx.ExecContext(ctx, `
        INSERT INTO settings (conversation_id, model, system_prompt, image_model)
        VALUES ($1, $2, $3, $4)`,
		defaults.ConvID, defaults.Model, defaults.SystemPrompt, defaults.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("failed to insert settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return conv, nil
}

func (db *Database) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	err := db.db.QueryRowContext(ctx, `
        SELECT id, title, created_at, updated_at
        FROM conversations
        WHERE id = $1`, id).Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (db *Database) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT id, title, created_at, updated_at
        FROM conversations
        ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return []models.Conversation{}, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return []models.Conversation{}, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// UpdateConversationTitle sets the title and bumps updated_at.
func (db *Database) UpdateConversationTitle(ctx context.Context, id int64, title string) error {
	res, err := db.db.ExecContext(ctx,
		"UPDATE conversations SET title = $1, updated_at = $2 WHERE id = $3", title, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteConversation removes the conversation, its messages and its settings
// in one transaction.
func (db *Database) DeleteConversation(ctx context.Context, id int64) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = $1", id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE conversation_id = $1", id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := expectRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *Database) SaveMessage(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = db.now()
	return db.db.QueryRowContext(ctx, `
        INSERT INTO messages (conversation_id, role, content, is_image, model_used, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`,
		msg.ConvID, msg.Role, msg.Content, msg.IsImage, msg.ModelUsed, msg.CreatedAt).Scan(&msg.ID)
}

// ListMessages returns a conversation's messages, oldest first.
func (db *Database) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := db.db.QueryContext(ctx, `
        SELECT id, conversation_id, role, content, is_image, model_used, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return []models.Message{}, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ConvID, &msg.Role, &msg.Content, &msg.IsImage, &msg.ModelUsed, &msg.CreatedAt)
		if err != nil {
			return []models.Message{}, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (db *Database) CountMessages(ctx context.Context, conversationID int64) (int, error) {
	var n int
	err := db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE conversation_id = $1", conversationID).Scan(&n)
	return n, err
}

// GetOrCreateSettings returns the settings row for a conversation, inserting
// the defaults first if there is none.
func (db *Database) GetOrCreateSettings(ctx context.Context, conversationID int64) (*models.Settings, error) {
	defaults := models.DefaultSettings(conversationID)
	_, err := db.db.ExecContext(ctx, `
        INSERT INTO settings (conversation_id, model, system_prompt, image_model)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (conversation_id) DO NOTHING`,
		defaults.ConvID, defaults.Model, defaults.SystemPrompt, defaults.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}

	var s models.Settings
	err = db.db.QueryRowContext(ctx, `
        SELECT id, conversation_id, model, system_prompt, image_model
        FROM settings
        WHERE conversation_id = $1`, conversationID).
		Scan(&s.ID, &s.ConvID, &s.Model, &s.SystemPrompt, &s.ImageModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (db *Database) UpdateSettings(ctx context.Context, s *models.Settings) error {
	res, err := db.db.ExecContext(ctx, `
        UPDATE settings
        SET model = $1, system_prompt = $2, image_model = $3
        WHERE conversation_id = $4`,
		s.Model, s.SystemPrompt, s.ImageModel, s.ConvID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
