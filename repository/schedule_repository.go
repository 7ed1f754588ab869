package repository

import (
	"fmt"
	"time"

	"MagicLists/db"
	"MagicLists/model"

	"gorm.io/gorm"
)

// ScheduleRepository defines the interface for scheduled-refresh records.
type ScheduleRepository interface {
	CreateSchedule(schedule *model.ScheduledPlaylist) error
	GetAllSchedules() ([]*model.ScheduledPlaylist, error)
	GetDueSchedules(now time.Time) ([]*model.ScheduledPlaylist, error)
	UpdateNextRefresh(id int64, next time.Time) error
	DeleteSchedule(id int64) error
}

// gormScheduleRepository implements ScheduleRepository on GORM.
type gormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a repository bound to the shared GORM handle.
func NewGormScheduleRepository() ScheduleRepository {
	return &gormScheduleRepository{db: db.GormDB}
}

func (r *gormScheduleRepository) CreateSchedule(schedule *model.ScheduledPlaylist) error {
	if schedule.NextRefresh.IsZero() {
		schedule.NextRefresh = time.Now().Add(schedule.NextInterval())
	}
	if err := r.db.Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *gormScheduleRepository) GetAllSchedules() ([]*model.ScheduledPlaylist, error) {
	var schedules []*model.ScheduledPlaylist
	if err := r.db.Order("next_refresh ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// GetDueSchedules returns schedules whose refresh time has passed.
func (r *gormScheduleRepository) GetDueSchedules(now time.Time) ([]*model.ScheduledPlaylist, error) {
	var schedules []*model.ScheduledPlaylist
	if err := r.db.Where("next_refresh <= ?", now).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to query due schedules: %w", err)
	}
	return schedules, nil
}

func (r *gormScheduleRepository) UpdateNextRefresh(id int64, next time.Time) error {
	err := r.db.Model(&model.ScheduledPlaylist{}).
		Where("id = ?", id).
		Update("next_refresh", next).Error
	if err != nil {
		return fmt.Errorf("failed to update schedule %d: %w", id, err)
	}
	return nil
}

func (r *gormScheduleRepository) DeleteSchedule(id int64) error {
	if err := r.db.Delete(&model.ScheduledPlaylist{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete schedule %d: %w", id, err)
	}
	return nil
}
