// Package rating — repository.go отвечает за долговременное хранение снапшота.
// Store абстрагирует бэкенд: JSON-файл (по умолчанию) или PostgreSQL.
package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Store абстрагирует хранилище снапшота леджера.
// Load вызывается один раз при старте, Save — после каждой мутации.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// FileStore хранит снапшот в одном JSON-файле.
// Файл переписывается целиком при каждом Save.
type FileStore struct {
	path string
}

// NewFileStore создаёт файловое хранилище. Файл создаётся при первом Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает снапшот из файла. Отсутствующий файл — пустой снапшот.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.WithField("file", s.path).Info("Файл базы не найден, начинаем с пустого леджера")
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("ошибка чтения файла базы: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла базы: %w", err)
	}
	snap.Normalize()

	log.WithFields(log.Fields{
		"file":  s.path,
		"users": len(snap.Users),
	}).Info("База данных загружена")
	return &snap, nil
}

// Save переписывает файл целиком.
// Пишем во временный файл и делаем rename: упавшая на середине запись
// не должна оставить после себя битый JSON.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи снапшота: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка закрытия временного файла: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка замены файла базы: %w", err)
	}
	return nil
}
