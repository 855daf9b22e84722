package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"impact-rag/internal/config"
	"impact-rag/internal/helper"
	"impact-rag/internal/models"
)

// Conversation is the persisted row: the turn list lives in a JSONB column,
// appended as a whole on every exchange.
type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID        string        `bun:"id,pk"`
	UserID    string        `bun:"user_id,notnull"`
	Title     string        `bun:"title"`
	Messages  []models.Turn `bun:"messages,type:jsonb"`
	CreatedAt time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Postgres implements Store on a bun/PostgreSQL connection.
type Postgres struct {
	db *bun.DB
}

func ConnectDB(cfg *config.DatabaseConfig) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func NewPostgres(db *bun.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Init(ctx context.Context) error {
	_, err := p.db.NewCreateTable().Model((*Conversation)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (p *Postgres) Load(ctx context.Context, conversationID, userID string) ([]models.Turn, error) {
	conv := new(Conversation)
	err := p.db.NewSelect().
		Model(conv).
		Where("c.id = ?", conversationID).
		Where("c.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv.Messages, nil
}

func (p *Postgres) Upsert(ctx context.Context, userID string, turns []models.Turn, conversationID string) (string, error) {
	if conversationID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			return "", err
		}
		conv := &Conversation{
			ID:       id,
			UserID:   userID,
			Title:    conversationTitle(turns),
			Messages: turns,
		}
		if _, err := p.db.NewInsert().Model(conv).Exec(ctx); err != nil {
			return "", err
		}
		return id, nil
	}

	existing, err := p.Load(ctx, conversationID, userID)
	if err != nil {
		return "", err
	}
	conv := &Conversation{
		ID:       conversationID,
		UserID:   userID,
		Messages: append(existing, turns...),
	}
	res, err := p.db.NewUpdate().
		Model(conv).
		Column("messages").
		Where("c.id = ?", conversationID).
		Where("c.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", ErrNotFound
	}
	return conversationID, nil
}
