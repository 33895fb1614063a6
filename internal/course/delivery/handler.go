package delivery

import (
	"errors"
	"net/http"
	"time"

	"studydash-backend/internal/course/domain"
	coursedto "studydash-backend/internal/course/dto"
	"studydash-backend/internal/course/usecase"

	"github.com/gin-gonic/gin"
)

// CourseHandler handles course, work item and calendar event requests
type CourseHandler struct {
	courseUsecase usecase.CourseUsecase
}

func NewCourseHandler(courseUsecase usecase.CourseUsecase) *CourseHandler {
	return &CourseHandler{
		courseUsecase: courseUsecase,
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

func respondErr(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// CreateCourse creates a user-owned course
// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req coursedto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseUsecase.CreateCourse(userID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// ListCourses returns the user's courses
// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseUsecase.ListCourses(userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourse returns one course
// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseUsecase.GetCourse(userID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// UpdateCourse patches one course
// PATCH /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req coursedto.CourseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseUsecase.UpdateCourse(userID(c), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes one course
// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courseUsecase.DeleteCourse(userID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CreateWorkItem creates a work item
// POST /api/work-items
func (h *CourseHandler) CreateWorkItem(c *gin.Context) {
	var req coursedto.WorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.courseUsecase.CreateWorkItem(userID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListWorkItems returns the user's work items, optionally by status
// GET /api/work-items?status=pending
func (h *CourseHandler) ListWorkItems(c *gin.Context) {
	var status *domain.WorkItemStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.WorkItemStatus(raw)
		status = &s
	}

	items, err := h.courseUsecase.ListWorkItems(userID(c), status)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetWorkItem returns one work item
// GET /api/work-items/:id
func (h *CourseHandler) GetWorkItem(c *gin.Context) {
	item, err := h.courseUsecase.GetWorkItem(userID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateWorkItem patches one work item
// PATCH /api/work-items/:id
func (h *CourseHandler) UpdateWorkItem(c *gin.Context) {
	var req coursedto.WorkItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.courseUsecase.UpdateWorkItem(userID(c), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteWorkItem removes one work item
// DELETE /api/work-items/:id
func (h *CourseHandler) DeleteWorkItem(c *gin.Context) {
	if err := h.courseUsecase.DeleteWorkItem(userID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CreateEvent creates a calendar event
// POST /api/events
func (h *CourseHandler) CreateEvent(c *gin.Context) {
	var req coursedto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.courseUsecase.CreateEvent(userID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// ListEvents returns the user's events, optionally windowed
// GET /api/events?from=...&to=...
func (h *CourseHandler) ListEvents(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		to = &t
	}

	events, err := h.courseUsecase.ListEvents(userID(c), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// UpdateEvent patches one event
// PATCH /api/events/:id
func (h *CourseHandler) UpdateEvent(c *gin.Context) {
	var req coursedto.EventUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.courseUsecase.UpdateEvent(userID(c), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes one event
// DELETE /api/events/:id
func (h *CourseHandler) DeleteEvent(c *gin.Context) {
	if err := h.courseUsecase.DeleteEvent(userID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
