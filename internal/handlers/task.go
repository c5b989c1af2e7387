package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/authz"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/realtime"
	"github.com/orgaos-dev/orgaos/internal/types"
	"github.com/orgaos-dev/orgaos/internal/utils"
	"gorm.io/gorm"
)

type TaskHandler struct {
	Hub *realtime.Hub
}

func NewTaskHandler(hub *realtime.Hub) *TaskHandler {
	return &TaskHandler{Hub: hub}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ProjectID   uint   `json:"project_id" binding:"required"`
	AssigneeID  *uint  `json:"assignee_id"`
	Priority    string `json:"priority"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	// Raw so an explicit null (unassign) is distinguishable from the
	// field being absent (leave unchanged).
	AssigneeID json.RawMessage `json:"assignee_id"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	ProjectID   uint                `json:"project_id"`
	Assignee    *types.UserResponse `json:"assignee,omitempty"`
}

func taskResponse(task *models.Task) TaskResponse {
	response := TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		ProjectID:   task.ProjectID,
	}

	if task.Assignee != nil {
		response.Assignee = &types.UserResponse{
			ID:          task.Assignee.ID,
			DisplayName: task.Assignee.DisplayName,
			Email:       task.Assignee.Email,
		}
	}

	return response
}

// CreateTask creates a task on a project. Editor or Admin role required; a
// non-member (or a nonexistent project) resolves to no role and is rejected.
func (h *TaskHandler) CreateTask(ctx *gin.Context) {
	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	role, _, err := authz.ResolveRole(userID, body.ProjectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanMutateTasks(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Editor or Admin role required"})
		return
	}

	priority := body.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}

	if !types.ValidPriority(priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	task := models.Task{
		Title:       body.Title,
		Description: body.Description,
		Status:      types.StatusTodo,
		Priority:    priority,
		ProjectID:   body.ProjectID,
		AssigneeID:  body.AssigneeID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if task.AssigneeID != nil {
		if err := db.DB.Preload("Assignee").First(&task, task.ID).Error; err != nil {
			log.Printf("Failed to reload task %d: %v", task.ID, err)
		}
	}

	response := taskResponse(&task)

	// Broadcast to all clients; the frontend filters by project.
	h.Hub.Broadcast(realtime.EventTaskCreated, response)

	ctx.JSON(http.StatusCreated, response)
}

// GetTasksByProject lists a project's tasks with assignees populated.
func (h *TaskHandler) GetTasksByProject(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, taskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateTask mutates task fields. The task is fetched before the role check
// so an unknown task reports 404, not 403.
func (h *TaskHandler) UpdateTask(ctx *gin.Context) {
	taskID, ok := parseIDParam(ctx, "task_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var task models.Task

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, task.ProjectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanMutateTasks(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Editor or Admin role required"})
		return
	}

	if body.Status != nil && !types.ValidStatus(*body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if body.Priority != nil && !types.ValidPriority(*body.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	if body.Title != nil {
		task.Title = *body.Title
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if body.Status != nil {
		task.Status = *body.Status
	}
	if body.Priority != nil {
		task.Priority = *body.Priority
	}
	if len(body.AssigneeID) > 0 {
		if string(body.AssigneeID) == "null" {
			task.AssigneeID = nil
		} else {
			var assigneeID uint
			if err := json.Unmarshal(body.AssigneeID, &assigneeID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee"})
				return
			}
			task.AssigneeID = &assigneeID
		}
	}

	if err := db.DB.Save(&task).Error; err != nil {
		log.Printf("Failed to update task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if task.AssigneeID != nil {
		if err := db.DB.Preload("Assignee").First(&task, task.ID).Error; err != nil {
			log.Printf("Failed to reload task %d: %v", task.ID, err)
		}
	}

	response := taskResponse(&task)

	h.Hub.Broadcast(realtime.EventTaskUpdated, response)

	ctx.JSON(http.StatusOK, response)
}

// UpdateTaskStatus moves a task between kanban columns. Every transition
// between the three statuses is allowed, in any direction.
func (h *TaskHandler) UpdateTaskStatus(ctx *gin.Context) {
	taskID, ok := parseIDParam(ctx, "task_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var body UpdateTaskStatusRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !types.ValidStatus(body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var task models.Task

	if err := db.DB.Preload("Assignee").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, task.ProjectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanMutateTasks(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Editor or Admin role required"})
		return
	}

	if err := db.DB.Model(&task).Update("status", body.Status).Error; err != nil {
		log.Printf("Failed to update task %d status: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	response := taskResponse(&task)

	h.Hub.Broadcast(realtime.EventTaskUpdated, response)

	ctx.JSON(http.StatusOK, response)
}

// DeleteTask deletes a task and broadcasts the deletion.
func (h *TaskHandler) DeleteTask(ctx *gin.Context) {
	taskID, ok := parseIDParam(ctx, "task_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var task models.Task

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, task.ProjectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanMutateTasks(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Editor or Admin role required"})
		return
	}

	if err := db.DB.Delete(&task).Error; err != nil {
		log.Printf("Failed to delete task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.Hub.Broadcast(realtime.EventTaskDeleted, gin.H{
		"task_id":    taskID,
		"project_id": task.ProjectID,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
