package academy

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrModuleNotFound   = errors.New("module not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
	ErrCourseNotForFree = errors.New("course requires purchase")
	ErrTitleRequired    = errors.New("title is required")
	ErrSlugRequired     = errors.New("slug is required")
)

type AcademyService struct {
	db *gorm.DB
}

func NewAcademyService(db *gorm.DB) *AcademyService {
	return &AcademyService{db: db}
}

// --- Catalog ---

func (s *AcademyService) ListPublishedCourses() ([]Course, error) {
	var courses []Course
	err := s.db.Where("is_published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourseBySlug loads a published course with its modules and lessons
// in display order.
func (s *AcademyService) GetCourseBySlug(slug string) (*Course, error) {
	var course Course
	err := s.db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&course, "slug = ? AND is_published = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// --- Enrollment ---

// Enroll registers the user on a published course. Paid courses are
// rejected here; purchases run through the storefront first.
func (s *AcademyService) Enroll(userID, courseID uuid.UUID) (*CourseEnrollment, error) {
	var course Course
	err := s.db.First(&course, "id = ? AND is_published = ?", courseID, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsFree && course.Price > 0 {
		return nil, ErrCourseNotForFree
	}

	enrollment := CourseEnrollment{UserID: userID, CourseID: courseID}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyEnrolled
	}
	return &enrollment, nil
}

func (s *AcademyService) ListEnrollments(userID uuid.UUID) ([]CourseEnrollment, error) {
	var enrollments []CourseEnrollment
	err := s.db.Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *AcademyService) isEnrolled(userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// --- Progress ---

// MarkLessonProgress upserts the user's completion state for a lesson.
// Free lessons are open to everyone; the rest require enrollment.
func (s *AcademyService) MarkLessonProgress(userID, lessonID uuid.UUID, completed bool) (*LessonProgress, error) {
	var lesson Lesson
	if err := s.db.First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}

	if !lesson.IsFree {
		var module CourseModule
		if err := s.db.First(&module, "id = ?", lesson.ModuleID).Error; err != nil {
			return nil, err
		}
		enrolled, err := s.isEnrolled(userID, module.CourseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, ErrNotEnrolled
		}
	}

	var progress LessonProgress
	err := s.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = LessonProgress{UserID: userID, LessonID: lessonID}
	default:
		return nil, err
	}

	progress.Completed = completed
	if completed {
		now := time.Now().UTC()
		progress.CompletedAt = &now
	} else {
		progress.CompletedAt = nil
	}
	if err := s.db.Save(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetCourseProgress counts completed lessons against the course total.
func (s *AcademyService) GetCourseProgress(userID, courseID uuid.UUID) (*CourseProgress, error) {
	var course Course
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	var total int64
	err := s.db.Model(&Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	var completed int64
	err = s.db.Model(&LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND lesson_progresses.user_id = ? AND lesson_progresses.completed = ?",
			courseID, userID, true).
		Count(&completed).Error
	if err != nil {
		return nil, err
	}

	return &CourseProgress{
		CourseID:         courseID,
		TotalLessons:     int(total),
		CompletedLessons: int(completed),
		Percent:          ProgressPercent(int(completed), int(total)),
	}, nil
}

// ProgressPercent returns completion as a percentage rounded to two
// decimal places. Zero lessons means zero percent, never a division
// by zero.
func ProgressPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	pct := float64(completed) / float64(total) * 100
	return float64(int(pct*100+0.5)) / 100
}

// --- Admin course management ---

func (s *AcademyService) CreateCourse(req *CourseRequest) (*Course, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	course := Course{
		Title:        strings.TrimSpace(req.Title),
		Slug:         strings.TrimSpace(req.Slug),
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		IsPublished:  req.IsPublished,
		IsFree:       req.IsFree,
		Price:        req.Price,
	}
	if err := s.db.Create(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *AcademyService) UpdateCourse(courseID uuid.UUID, req *CourseRequest) (*Course, error) {
	var course Course
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Slug = strings.TrimSpace(req.Slug)
	course.Description = req.Description
	course.ThumbnailURL = req.ThumbnailURL
	course.IsPublished = req.IsPublished
	course.IsFree = req.IsFree
	course.Price = req.Price
	if err := s.db.Save(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *AcademyService) DeleteCourse(courseID uuid.UUID) error {
	result := s.db.Delete(&Course{}, "id = ?", courseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *AcademyService) CreateModule(courseID uuid.UUID, req *ModuleRequest) (*CourseModule, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	var course Course
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	module := CourseModule{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	}
	if err := s.db.Create(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (s *AcademyService) UpdateModule(moduleID uuid.UUID, req *ModuleRequest) (*CourseModule, error) {
	var module CourseModule
	if err := s.db.First(&module, "id = ?", moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	module.Title = strings.TrimSpace(req.Title)
	module.Description = req.Description
	module.OrderIndex = req.OrderIndex
	if err := s.db.Save(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (s *AcademyService) DeleteModule(moduleID uuid.UUID) error {
	result := s.db.Delete(&CourseModule{}, "id = ?", moduleID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrModuleNotFound
	}
	return nil
}

func (s *AcademyService) CreateLesson(moduleID uuid.UUID, req *LessonRequest) (*Lesson, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	var module CourseModule
	if err := s.db.First(&module, "id = ?", moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}

	lesson := Lesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		Content:         req.Content,
		DurationMinutes: req.DurationMinutes,
		OrderIndex:      req.OrderIndex,
		IsFree:          req.IsFree,
	}
	if err := s.db.Create(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (s *AcademyService) UpdateLesson(lessonID uuid.UUID, req *LessonRequest) (*Lesson, error) {
	var lesson Lesson
	if err := s.db.First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = req.Description
	lesson.VideoURL = req.VideoURL
	lesson.Content = req.Content
	lesson.DurationMinutes = req.DurationMinutes
	lesson.OrderIndex = req.OrderIndex
	lesson.IsFree = req.IsFree
	if err := s.db.Save(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (s *AcademyService) DeleteLesson(lessonID uuid.UUID) error {
	result := s.db.Delete(&Lesson{}, "id = ?", lessonID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLessonNotFound
	}
	return nil
}
