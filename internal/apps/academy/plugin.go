package academy

import (
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AcademyPlugin struct{}

func New() *AcademyPlugin {
	return &AcademyPlugin{}
}

func (p *AcademyPlugin) ID() string { return "academy" }

func (p *AcademyPlugin) Models() []interface{} {
	return []interface{}{
		&Course{},
		&CourseModule{},
		&Lesson{},
		&CourseEnrollment{},
		&LessonProgress{},
	}
}

func (p *AcademyPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewAcademyService(db)
	handler := NewAcademyHandler(svc)

	router.Get("/academy/courses", handler.ListCourses)
	router.Get("/academy/courses/:slug", handler.GetCourse)
	router.Post("/academy/courses/:id/enroll", handler.Enroll)
	router.Get("/academy/courses/:id/progress", handler.GetCourseProgress)
	router.Get("/academy/enrollments", handler.ListEnrollments)
	router.Post("/academy/lessons/:id/progress", handler.MarkProgress)
}

func (p *AcademyPlugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewAcademyService(db)
	handler := NewAcademyHandler(svc)

	router.Post("/academy/courses", handler.CreateCourse)
	router.Put("/academy/courses/:id", handler.UpdateCourse)
	router.Delete("/academy/courses/:id", handler.DeleteCourse)

	router.Post("/academy/courses/:id/modules", handler.CreateModule)
	router.Put("/academy/modules/:id", handler.UpdateModule)
	router.Delete("/academy/modules/:id", handler.DeleteModule)

	router.Post("/academy/modules/:id/lessons", handler.CreateLesson)
	router.Put("/academy/lessons/:id", handler.UpdateLesson)
	router.Delete("/academy/lessons/:id", handler.DeleteLesson)
}
