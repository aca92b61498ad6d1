package directory

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Email       string    `gorm:"column:email;not null"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

// GormStore implements Lookup over the users table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore. The users table is created by the
// goose migrations.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// BatchGet resolves the given ids in a single query.
func (s *GormStore) BatchGet(ctx context.Context, ids []string) (map[string]UserRecord, error) {
	if len(ids) == 0 {
		return map[string]UserRecord{}, nil
	}

	var rows []userModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("looking up users: %w", err)
	}

	users := make(map[string]UserRecord, len(rows))
	for _, r := range rows {
		users[r.ID] = UserRecord{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Email:       r.Email,
		}
	}
	return users, nil
}

// Put upserts a user row. Used by the seed and by user write paths.
func (s *GormStore) Put(ctx context.Context, u UserRecord) error {
	row := userModel{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("upserting user %s: %w", u.ID, err)
	}
	return nil
}
