package academy

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Slug         string         `gorm:"size:280;not null;uniqueIndex" json:"slug"`
	Description  *string        `gorm:"type:text" json:"description"`
	ThumbnailURL *string        `gorm:"type:text" json:"thumbnail_url"`
	IsPublished  bool           `gorm:"default:false;index" json:"is_published"`
	IsFree       bool           `gorm:"default:false" json:"is_free"`
	Price        float64        `gorm:"default:0" json:"price"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Modules      []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

type CourseModule struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	OrderIndex  int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	Lessons     []Lesson  `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

type Lesson struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ModuleID        uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     *string   `gorm:"type:text" json:"description"`
	VideoURL        *string   `gorm:"type:text" json:"video_url"`
	Content         *string   `gorm:"type:text" json:"content"`
	DurationMinutes int       `gorm:"default:0" json:"duration_minutes"`
	OrderIndex      int       `gorm:"not null;default:0" json:"order_index"`
	IsFree          bool      `gorm:"default:false" json:"is_free"`
	CreatedAt       time.Time `json:"created_at"`
}

type CourseEnrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
}

type LessonProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// --- DTOs ---

type CourseRequest struct {
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	IsPublished  bool    `json:"is_published"`
	IsFree       bool    `json:"is_free"`
	Price        float64 `json:"price"`
}

type ModuleRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	OrderIndex  int     `json:"order_index"`
}

type LessonRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	VideoURL        *string `json:"video_url"`
	Content         *string `json:"content"`
	DurationMinutes int     `json:"duration_minutes"`
	OrderIndex      int     `json:"order_index"`
	IsFree          bool    `json:"is_free"`
}

type ProgressRequest struct {
	Completed bool `json:"completed"`
}

// CourseProgress summarizes how far a user is through a course.
type CourseProgress struct {
	CourseID         uuid.UUID `json:"course_id"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	Percent          float64   `json:"percent"`
}
