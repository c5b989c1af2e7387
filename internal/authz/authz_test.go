package authz_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/orgaos-dev/orgaos/db"
	"github.com/orgaos-dev/orgaos/internal/authz"
	"github.com/orgaos-dev/orgaos/internal/models"
	"github.com/orgaos-dev/orgaos/internal/types"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
}

func seedMembership(t *testing.T, role types.Role) (userID, projectID uint) {
	t.Helper()

	user := models.User{Email: "member@test.com", PasswordHash: "x"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	project := models.Project{Name: "P", OwnerID: user.ID}
	if err := db.DB.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	membership := models.ProjectMembership{
		UserID:    user.ID,
		ProjectID: project.ID,
		Role:      string(role),
	}
	if err := db.DB.Create(&membership).Error; err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}

	return user.ID, project.ID
}

func TestResolveRoleMember(t *testing.T) {
	setupDB(t)
	userID, projectID := seedMembership(t, types.RoleEditor)

	role, ok, err := authz.ResolveRole(userID, projectID)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if !ok || role != types.RoleEditor {
		t.Errorf("ResolveRole = (%q, %v), want (Editor, true)", role, ok)
	}
}

func TestResolveRoleNonMember(t *testing.T) {
	setupDB(t)
	_, projectID := seedMembership(t, types.RoleAdmin)

	outsider := models.User{Email: "outsider@test.com", PasswordHash: "x"}
	if err := db.DB.Create(&outsider).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	role, ok, err := authz.ResolveRole(outsider.ID, projectID)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if ok || role != "" {
		t.Errorf("ResolveRole = (%q, %v), want no role without error", role, ok)
	}
}

func TestResolveRoleUnknownProject(t *testing.T) {
	setupDB(t)
	userID, _ := seedMembership(t, types.RoleAdmin)

	role, ok, err := authz.ResolveRole(userID, 99999)
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if ok || role != "" {
		t.Errorf("ResolveRole = (%q, %v), want no role for unknown project", role, ok)
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		role          types.Role
		taskMutate    bool
		projectManage bool
	}{
		{types.RoleAdmin, true, true},
		{types.RoleEditor, true, false},
		{types.RoleViewer, false, false},
		{"", false, false},
		{"SuperAdmin", false, false},
	}

	for _, tt := range tests {
		if got := authz.CanMutateTasks(tt.role); got != tt.taskMutate {
			t.Errorf("CanMutateTasks(%q) = %v, want %v", tt.role, got, tt.taskMutate)
		}
		if got := authz.CanManageProject(tt.role); got != tt.projectManage {
			t.Errorf("CanManageProject(%q) = %v, want %v", tt.role, got, tt.projectManage)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, valid := range []string{"Admin", "Editor", "Viewer"} {
		if !types.ValidRole(valid) {
			t.Errorf("ValidRole(%q) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "admin", "SuperAdmin", "Owner"} {
		if types.ValidRole(invalid) {
			t.Errorf("ValidRole(%q) = true, want false", invalid)
		}
	}
}
