package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/backend/apperr"
)

// documentRow is the single table every logical collection lives in.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Version    int64  `gorm:"not null;default:1"`
	Data       datatypes.JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// maxMergeAttempts bounds the internal compare-and-swap loop of SetFields.
const maxMergeAttempts = 5

type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the documents table and returns a store over db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	row, err := s.find(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return row.document()
}

func (s *GormStore) SetFields(ctx context.Context, collection, id string, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		row, err := s.find(ctx, collection, id)
		if errors.Is(err, apperr.ErrNotFound) {
			data, err := json.Marshal(clean)
			if err != nil {
				return fmt.Errorf("encode fields: %w", err)
			}
			return s.db.WithContext(ctx).Create(&documentRow{
				Collection: collection,
				ID:         id,
				Version:    1,
				Data:       datatypes.JSON(data),
			}).Error
		}
		if err != nil {
			return err
		}

		err = s.swap(ctx, row, clean)
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		return err
	}
	return apperr.ErrConflict
}

func (s *GormStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}
	row, err := s.find(ctx, collection, id)
	if err != nil {
		return err
	}
	if row.Version != version {
		return apperr.ErrConflict
	}
	return s.swap(ctx, row, clean)
}

func (s *GormStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	clean, err := normalize(fields)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}

	row := documentRow{
		Collection: collection,
		ID:         uuid.NewString(),
		Version:    1,
		Data:       datatypes.JSON(data),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// Insert relies on the (collection, id) primary key; a duplicate is skipped
// by ON CONFLICT DO NOTHING and reported as a conflict.
func (s *GormStore) Insert(ctx context.Context, collection, id string, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&documentRow{
			Collection: collection,
			ID:         id,
			Version:    1,
			Data:       datatypes.JSON(data),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// List loads the collection and filters in process so the same filter
// semantics hold on every SQL dialect.
func (s *GormStore) List(ctx context.Context, collection string, opts ListOptions) ([]*Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return applyListOptions(docs, opts), nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *GormStore) find(ctx context.Context, collection, id string) (*documentRow, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// swap writes the merged body only if nobody bumped the version since row was read.
func (s *GormStore) swap(ctx context.Context, row *documentRow, fields Fields) error {
	current := Fields{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &current); err != nil {
			return fmt.Errorf("decode document %s/%s: %w", row.Collection, row.ID, err)
		}
	}
	data, err := json.Marshal(merge(current, fields))
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&documentRow{}).
		Where("collection = ? AND id = ? AND version = ?", row.Collection, row.ID, row.Version).
		Updates(map[string]any{
			"data":       datatypes.JSON(data),
			"version":    row.Version + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (r *documentRow) document() (*Document, error) {
	fields := Fields{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", r.Collection, r.ID, err)
		}
	}
	return &Document{ID: r.ID, Version: r.Version, Fields: fields}, nil
}
