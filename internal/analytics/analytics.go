// Package analytics records unlock events to a local sqlite database. The
// rows are write-mostly telemetry; nothing feeds them back into an engine.
package analytics

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bytspot/rewards/internal/achievement"
)

type Recorder struct {
	db        *gorm.DB
	sessionID string
	logger    *zap.Logger
}

type UnlockRecord struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	SessionID       string `gorm:"index"`
	AchievementID   string `gorm:"index"`
	Rarity          string
	Category        string
	UnlockedAt      time.Time
	ProgressCurrent *float64
	ProgressMax     *float64
}

// NewRecorder opens (or creates) the database at dbFilePath. ":memory:" gives
// a throwaway database.
func NewRecorder(dbFilePath string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open analytics database: %w", err)
	}

	// sqlite has a single writer, and ":memory:" is per connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open analytics database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&UnlockRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate analytics database: %w", err)
	}

	return &Recorder{
		db:        db,
		sessionID: uuid.NewString(),
		logger:    log,
	}, nil
}

// SessionID identifies the rows written by this recorder
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record stores one unlock
func (r *Recorder) Record(u achievement.Unlocked) error {
	record := UnlockRecord{
		SessionID:     r.sessionID,
		AchievementID: u.ID,
		Rarity:        string(u.Rarity),
		Category:      string(u.Category),
		UnlockedAt:    u.UnlockedAt,
	}
	if u.Progress != nil {
		current, maximum := u.Progress.Current, u.Progress.Max
		record.ProgressCurrent = &current
		record.ProgressMax = &maximum
	}

	if err := r.db.Create(&record).Error; err != nil {
		return fmt.Errorf("record unlock %s: %w", u.ID, err)
	}
	return nil
}

// Listener adapts Record to an engine unlock listener. Failures are logged,
// never returned to the engine.
func (r *Recorder) Listener() func(achievement.Unlocked) {
	return func(u achievement.Unlocked) {
		if err := r.Record(u); err != nil {
			r.logger.Warn("failed to record unlock", zap.String("id", u.ID), zap.Error(err))
		}
	}
}

// RecentUnlocks returns up to limit records, newest first
func (r *Recorder) RecentUnlocks(limit int) ([]UnlockRecord, error) {
	var records []UnlockRecord
	result := r.db.Order("unlocked_at desc").Order("id desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// CountByRarity returns how many unlocks were recorded per rarity
func (r *Recorder) CountByRarity() (map[achievement.Rarity]int64, error) {
	var results []struct {
		Rarity string
		Count  int64
	}
	if err := r.db.Model(&UnlockRecord{}).Select("rarity, count(*) as count").Group("rarity").Scan(&results).Error; err != nil {
		return nil, err
	}

	counts := make(map[achievement.Rarity]int64, len(results))
	for _, res := range results {
		counts[achievement.Rarity(res.Rarity)] = res.Count
	}
	return counts, nil
}

// TotalCount returns the number of stored unlocks
func (r *Recorder) TotalCount() (int64, error) {
	var count int64
	if err := r.db.Model(&UnlockRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Reset deletes every stored unlock
func (r *Recorder) Reset() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&UnlockRecord{}).Error
}

func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
