package dto

import (
	"time"

	"studydash-backend/internal/course/domain"
	"studydash-backend/pkg/htmltext"
)

type CourseRequest struct {
	Name      string          `json:"name" binding:"required"`
	Code      string          `json:"code"`
	Term      string          `json:"term"`
	StartDate *time.Time      `json:"start_date"`
	EndDate   *time.Time      `json:"end_date"`
	Links     []htmltext.Link `json:"links"`
}

type CourseUpdateRequest struct {
	Name      *string          `json:"name"`
	Code      *string          `json:"code"`
	Term      *string          `json:"term"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
	Links     *[]htmltext.Link `json:"links"`
}

type WorkItemRequest struct {
	CourseID       string              `json:"course_id"`
	Title          string              `json:"title" binding:"required"`
	Type           domain.WorkItemType `json:"type"`
	DueDate        *time.Time          `json:"due_date"`
	PointsPossible *float64            `json:"points_possible"`
	Notes          string              `json:"notes"`
	Links          []htmltext.Link     `json:"links"`
}

type WorkItemUpdateRequest struct {
	CourseID       *string                `json:"course_id"`
	Title          *string                `json:"title"`
	Type           *domain.WorkItemType   `json:"type"`
	Status         *domain.WorkItemStatus `json:"status"`
	DueDate        *time.Time             `json:"due_date"`
	PointsPossible *float64               `json:"points_possible"`
	Notes          *string                `json:"notes"`
	Links          *[]htmltext.Link       `json:"links"`
}

// WorkItemResponse is a work item with the user and provider notes
// rendered into the single marker-delimited blob the clients edit
type WorkItemResponse struct {
	*domain.WorkItem
	Notes string `json:"notes"`
}

type EventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    string     `json:"location"`
}

type EventUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Location    *string    `json:"location"`
}
