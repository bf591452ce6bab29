package kv

import (
	"context"

	"GuardianLink/pkg/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one stored document.
type Entry struct {
	Name  string `gorm:"primaryKey;size:191" json:"name"`
	Value string `gorm:"type:text" json:"value"`
}

func (Entry) TableName() string { return "kv_entries" }

// sqlStore gorm 存储实现
type sqlStore struct {
	db *gorm.DB
}

// NewSQLStore opens the configured database and migrates the entry table.
func NewSQLStore(config SQLConfig) (Store, error) {
	db, err := util.CreateDatabaseInstance(config.Driver, config.DSN)
	if err != nil {
		return nil, err
	}
	return NewSQLStoreWithDB(db)
}

// NewSQLStoreWithDB reuses an open connection.
func NewSQLStoreWithDB(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &sqlStore{db: db}, nil
}

func (ss *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := ss.db.WithContext(ctx).Where("name = ?", key).Limit(1).Find(&e).Error
	if err != nil {
		return nil, false, err
	}
	if e.Name == "" {
		return nil, false, nil
	}
	return []byte(e.Value), true, nil
}

// Set 存在则更新
func (ss *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	return ss.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Entry{Name: key, Value: string(value)}).Error
}

func (ss *sqlStore) Delete(ctx context.Context, key string) error {
	return ss.db.WithContext(ctx).Where("name = ?", key).Delete(&Entry{}).Error
}

func (ss *sqlStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := ss.db.WithContext(ctx).Model(&Entry{}).Order("name").Pluck("name", &keys).Error
	return keys, err
}

func (ss *sqlStore) Close() error {
	sqlDB, err := ss.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
