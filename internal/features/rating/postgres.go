// Package rating — postgres.go хранит снапшот одной строкой JSONB.
// Формат блоба тот же, что у FileStore: бэкенды взаимозаменяемы,
// перенос ratings.json в таблицу — это Load из файла и Save в Postgres.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PostgresStore хранит снапшот в таблице rating_snapshot (ровно одна строка).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула соединений.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load читает снапшот из таблицы. Пустая таблица — пустой леджер.
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	query := `SELECT data FROM rating_snapshot WHERE id = 1`

	var data []byte
	err := s.db.QueryRow(ctx, query).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Info("Снапшот в БД не найден, начинаем с пустого леджера")
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("ошибка чтения снапшота из БД: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("ошибка разбора снапшота из БД: %w", err)
	}
	snap.Normalize()

	log.WithField("users", len(snap.Users)).Info("Снапшот загружен из PostgreSQL")
	return &snap, nil
}

// Save перезаписывает единственную строку снапшота.
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}

	query := `
		INSERT INTO rating_snapshot (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, data); err != nil {
		return fmt.Errorf("ошибка записи снапшота в БД: %w", err)
	}
	return nil
}
