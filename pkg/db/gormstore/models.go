package gormstore

import "time"

// CompletedLesson mirrors the completed_lessons table of package db.
type CompletedLesson struct {
	LessonID  string `gorm:"primaryKey;size:128"`
	Stars     int    `gorm:"not null"`
	UpdatedAt time.Time
}

// AppState holds singleton key/value settings such as the current lesson.
type AppState struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null;default:''"`
}

func (AppState) TableName() string { return "app_state" }
