package academy

import (
	"errors"

	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AcademyHandler struct {
	svc *AcademyService
}

func NewAcademyHandler(svc *AcademyService) *AcademyHandler {
	return &AcademyHandler{svc: svc}
}

func (h *AcademyHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.svc.ListPublishedCourses()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to list courses")
	}
	return c.JSON(courses)
}

func (h *AcademyHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.svc.GetCourseBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load course")
	}
	return c.JSON(course)
}

func (h *AcademyHandler) Enroll(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid course id")
	}

	enrollment, err := h.svc.Enroll(userID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyEnrolled):
			return fail(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, ErrCourseNotForFree):
			return fail(c, fiber.StatusPaymentRequired, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to enroll")
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (h *AcademyHandler) ListEnrollments(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	enrollments, err := h.svc.ListEnrollments(userID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to list enrollments")
	}
	return c.JSON(enrollments)
}

func (h *AcademyHandler) MarkProgress(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid lesson id")
	}

	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	progress, err := h.svc.MarkLessonProgress(userID, lessonID, req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, ErrLessonNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrNotEnrolled):
			return fail(c, fiber.StatusForbidden, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to save progress")
	}
	return c.JSON(progress)
}

func (h *AcademyHandler) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid course id")
	}

	progress, err := h.svc.GetCourseProgress(userID, courseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to load progress")
	}
	return c.JSON(progress)
}

// --- Admin ---

func (h *AcademyHandler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	course, err := h.svc.CreateCourse(&req)
	if err != nil {
		if errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrSlugRequired) {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create course")
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *AcademyHandler) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid course id")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	course, err := h.svc.UpdateCourse(courseID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrSlugRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCourseNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update course")
	}
	return c.JSON(course)
}

func (h *AcademyHandler) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid course id")
	}

	if err := h.svc.DeleteCourse(courseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete course")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AcademyHandler) CreateModule(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid course id")
	}

	var req ModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	module, err := h.svc.CreateModule(courseID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCourseNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create module")
	}
	return c.Status(fiber.StatusCreated).JSON(module)
}

func (h *AcademyHandler) UpdateModule(c *fiber.Ctx) error {
	moduleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid module id")
	}

	var req ModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	module, err := h.svc.UpdateModule(moduleID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrModuleNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update module")
	}
	return c.JSON(module)
}

func (h *AcademyHandler) DeleteModule(c *fiber.Ctx) error {
	moduleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid module id")
	}

	if err := h.svc.DeleteModule(moduleID); err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete module")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AcademyHandler) CreateLesson(c *fiber.Ctx) error {
	moduleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid module id")
	}

	var req LessonRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	lesson, err := h.svc.CreateLesson(moduleID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrModuleNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to create lesson")
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func (h *AcademyHandler) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid lesson id")
	}

	var req LessonRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	lesson, err := h.svc.UpdateLesson(lessonID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrLessonNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update lesson")
	}
	return c.JSON(lesson)
}

func (h *AcademyHandler) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid lesson id")
	}

	if err := h.svc.DeleteLesson(lessonID); err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to delete lesson")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
