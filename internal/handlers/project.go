package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/authz"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/realtime"
	"github.com/orgaos-dev/orgaos/internal/types"
	"github.com/orgaos-dev/orgaos/internal/utils"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	Hub *realtime.Hub
}

func NewProjectHandler(hub *realtime.Hub) *ProjectHandler {
	return &ProjectHandler{Hub: hub}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type ProjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	Role        string `json:"role,omitempty"`
}

type MemberResponse struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IsOwner     bool   `json:"is_owner"`
}

type InvitationResponse struct {
	ProjectID   uint   `json:"project_id"`
	ProjectName string `json:"project_name"`
	InviterName string `json:"inviter_name"`
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreateProject creates a project and the creator's Admin membership in one
// transaction, so the owner's role resolves correctly from the first read.
func (h *ProjectHandler) CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:        body.Name,
		Description: body.Description,
		OwnerID:     userID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.ProjectMembership{
			UserID:    userID,
			ProjectID: project.ID,
			Role:      string(types.RoleAdmin),
		}

		return tx.Create(&membership).Error
	})

	if err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		Role:        string(types.RoleAdmin),
	})
}

// ListProjects returns every project the caller holds a membership in,
// annotated with the caller's role.
func (h *ProjectHandler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("Project").Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(memberships))

	for _, membership := range memberships {
		response = append(response, ProjectResponse{
			ID:          membership.Project.ID,
			Name:        membership.Project.Name,
			Description: membership.Project.Description,
			OwnerID:     membership.Project.OwnerID,
			Role:        membership.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// DeleteProject removes a project and everything hanging off it. Admin only.
func (h *ProjectHandler) DeleteProject(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanManageProject(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})

	if err != nil {
		log.Printf("Failed to delete project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	h.Hub.BroadcastRoom(projectID, realtime.EventProjectDeleted, gin.H{"project_id": projectID})

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// InviteMember records a pending invitation for a registered user. The
// project and inviter names are snapshotted onto the invitation for display.
func (h *ProjectHandler) InviteMember(ctx *gin.Context) {
	var body InviteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	role, _, err := authz.ResolveRole(currentUser.ID, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanManageProject(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	var invitee models.User

	email := strings.ToLower(strings.TrimSpace(body.Email))

	if err := db.DB.Where("email = ?", email).First(&invitee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var existingMembership models.ProjectMembership

	err = db.DB.Where("user_id = ? AND project_id = ?", invitee.ID, projectID).First(&existingMembership).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var existingInvitation models.Invitation

	err = db.DB.Where("user_id = ? AND project_id = ?", invitee.ID, projectID).First(&existingInvitation).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already invited"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	inviterName := currentUser.DisplayName
	if inviterName == "" {
		inviterName = currentUser.Email
	}

	invitation := models.Invitation{
		UserID:      invitee.ID,
		ProjectID:   projectID,
		ProjectName: project.Name,
		InviterName: inviterName,
	}

	if err := db.DB.Create(&invitation).Error; err != nil {
		log.Printf("Failed to create invitation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	h.Hub.NotifyUser(invitee.ID, realtime.EventNewInvitation, InvitationResponse{
		ProjectID:   invitation.ProjectID,
		ProjectName: invitation.ProjectName,
		InviterName: invitation.InviterName,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}

// ListMembers returns the project's members. Visible to any member.
func (h *ProjectHandler) ListMembers(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	_, isMember, err := authz.ResolveRole(userID, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !isMember {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this project"})
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("User").Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, 0, len(memberships))

	for _, membership := range memberships {
		response = append(response, MemberResponse{
			ID:          membership.User.ID,
			DisplayName: membership.User.DisplayName,
			Email:       membership.User.Email,
			Role:        membership.Role,
			IsOwner:     membership.UserID == project.OwnerID,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateMemberRole changes one member's role. The requested role is
// validated before any lookup; the owner's role can never be changed, not
// even by another Admin.
func (h *ProjectHandler) UpdateMemberRole(ctx *gin.Context) {
	var body UpdateMemberRoleRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !types.ValidRole(body.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	targetUserID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanManageProject(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	if targetUserID == project.OwnerID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Cannot change the owner's role"})
		return
	}

	var membership models.ProjectMembership

	if err := db.DB.Where("user_id = ? AND project_id = ?", targetUserID, projectID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	membership.Role = body.Role

	if err := db.DB.Save(&membership).Error; err != nil {
		log.Printf("Failed to update member role: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	h.Hub.BroadcastRoom(projectID, realtime.EventMemberRoleUpdated, gin.H{
		"project_id": projectID,
		"user_id":    targetUserID,
		"role":       membership.Role,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// RemoveMember removes a member from the project. The owner can never be
// removed.
func (h *ProjectHandler) RemoveMember(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "project_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	targetUserID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	role, _, err := authz.ResolveRole(userID, projectID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !authz.CanManageProject(role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	if targetUserID == project.OwnerID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Cannot remove the project owner"})
		return
	}

	var membership models.ProjectMembership

	if err := db.DB.Where("user_id = ? AND project_id = ?", targetUserID, projectID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	// Hard-delete so the composite unique index frees the slot and the
	// user can be invited back later.
	if err := db.DB.Unscoped().Delete(&membership).Error; err != nil {
		log.Printf("Failed to remove member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	h.Hub.BroadcastRoom(projectID, realtime.EventMemberRemoved, gin.H{
		"project_id": projectID,
		"user_id":    targetUserID,
	})

	h.Hub.NotifyUser(targetUserID, realtime.EventRemovedFromProject, gin.H{
		"project_id":   projectID,
		"project_name": project.Name,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
