package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/types"
	"github.com/orgaos-dev/orgaos/internal/utils"
	"gorm.io/gorm"
)

type CreateEventRequest struct {
	Title  string    `json:"title" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	AllDay bool      `json:"all_day"`
}

type UpdateEventRequest struct {
	Title  *string    `json:"title"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
	AllDay *bool      `json:"all_day"`
	Status *string    `json:"status"`
}

type EventResponse struct {
	ID     uint      `json:"id"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
	Status string    `json:"status"`
}

func eventResponse(event *models.Event) EventResponse {
	return EventResponse{
		ID:     event.ID,
		Title:  event.Title,
		Start:  event.Start,
		End:    event.End,
		AllDay: event.AllDay,
		Status: event.Status,
	}
}

// fetchOwnedEvent loads an event and enforces that it belongs to the caller.
// Writes the error response itself and reports success via the bool.
func fetchOwnedEvent(ctx *gin.Context, eventID uint, userID uint) (models.Event, bool) {
	var event models.Event

	if err := db.DB.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event"})
		}
		return event, false
	}

	if event.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this event"})
		return event, false
	}

	return event, true
}

func CreateEvent(ctx *gin.Context) {
	var body CreateEventRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event := models.Event{
		Title:  body.Title,
		Start:  body.Start,
		End:    body.End,
		AllDay: body.AllDay,
		Status: types.StatusTodo,
		UserID: userID,
	}

	if err := db.DB.Create(&event).Error; err != nil {
		log.Printf("Failed to create event: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	ctx.JSON(http.StatusCreated, eventResponse(&event))
}

func GetMyEvents(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var events []models.Event

	if err := db.DB.Where("user_id = ?", userID).Find(&events).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	response := make([]EventResponse, 0, len(events))

	for i := range events {
		response = append(response, eventResponse(&events[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateEvent(ctx *gin.Context) {
	eventID, ok := parseIDParam(ctx, "event_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var body UpdateEventRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.Status != nil && !types.ValidStatus(*body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, ok := fetchOwnedEvent(ctx, eventID, userID)
	if !ok {
		return
	}

	if body.Title != nil {
		event.Title = *body.Title
	}
	if body.Start != nil {
		event.Start = *body.Start
	}
	if body.End != nil {
		event.End = *body.End
	}
	if body.AllDay != nil {
		event.AllDay = *body.AllDay
	}
	if body.Status != nil {
		event.Status = *body.Status
	}

	if err := db.DB.Save(&event).Error; err != nil {
		log.Printf("Failed to update event %d: %v", eventID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	ctx.JSON(http.StatusOK, eventResponse(&event))
}

func DeleteEvent(ctx *gin.Context) {
	eventID, ok := parseIDParam(ctx, "event_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, ok := fetchOwnedEvent(ctx, eventID, userID)
	if !ok {
		return
	}

	if err := db.DB.Delete(&event).Error; err != nil {
		log.Printf("Failed to delete event %d: %v", eventID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
