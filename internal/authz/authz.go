package authz

import (
	"errors"

	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/types"
	"gorm.io/gorm"
)

// ResolveRole looks up the caller's membership in a project. Not being a
// member (or the project not existing) is a normal outcome, reported as
// ok=false rather than an error; err is set only for database failures.
func ResolveRole(userID uint, projectID uint) (types.Role, bool, error) {
	var membership models.ProjectMembership

	err := db.DB.Where("user_id = ? AND project_id = ?", userID, projectID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	return types.Role(membership.Role), true, nil
}

// CanMutateTasks reports whether a role may create, update or delete tasks.
func CanMutateTasks(role types.Role) bool {
	return RoleHas(role, types.CapTaskMutate)
}

// CanManageProject reports whether a role may administer membership and
// delete the project. Editor is not sufficient here.
func CanManageProject(role types.Role) bool {
	return RoleHas(role, types.CapProjectManage)
}

func RoleHas(role types.Role, capability types.Capability) bool {
	caps, ok := types.RolePermissions[role]
	if !ok {
		return false
	}
	return caps[capability]
}
