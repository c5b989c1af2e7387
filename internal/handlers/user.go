package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/types"
	"github.com/orgaos-dev/orgaos/internal/utils"
	"gorm.io/gorm"
)

type RespondToInviteRequest struct {
	ProjectID uint  `json:"project_id" binding:"required"`
	Accept    *bool `json:"accept" binding:"required"`
}

// GetMyInvitations lists the caller's pending invitations.
func GetMyInvitations(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var invitations []models.Invitation

	if err := db.DB.Where("user_id = ?", userID).Find(&invitations).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invitations"})
		return
	}

	response := make([]InvitationResponse, 0, len(invitations))

	for _, invitation := range invitations {
		response = append(response, InvitationResponse{
			ProjectID:   invitation.ProjectID,
			ProjectName: invitation.ProjectName,
			InviterName: invitation.InviterName,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// RespondToInvite accepts or declines a pending invitation. Accepting adds
// a Viewer membership; either way the invitation is removed.
func RespondToInvite(ctx *gin.Context) {
	var body RespondToInviteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var invitation models.Invitation

	err = db.DB.Where("user_id = ? AND project_id = ?", userID, body.ProjectID).First(&invitation).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	accept := *body.Accept

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if accept {
			membership := models.ProjectMembership{
				UserID:    userID,
				ProjectID: body.ProjectID,
				Role:      string(types.RoleViewer),
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&invitation).Error
	})

	if err != nil {
		log.Printf("Failed to respond to invitation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to invitation"})
		return
	}

	message := "Invitation declined"
	if accept {
		message = "Invitation accepted"
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message})
}
