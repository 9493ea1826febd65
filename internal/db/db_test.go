package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := setupTestDB(t)
	for _, m := range Models() {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T was not created", m)
		}
	}
}

func TestGetOrCreateInstanceID_CreatesNewID(t *testing.T) {
	db := setupTestDB(t)

	id, err := GetOrCreateInstanceID(db)
	if err != nil {
		t.Fatalf("GetOrCreateInstanceID failed: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("instance ID is not a valid UUID: %v", err)
	}

	var setting models.Setting
	if err := db.Where("key = ?", models.SettingInstanceID).First(&setting).Error; err != nil {
		t.Fatalf("failed to query setting: %v", err)
	}
	if setting.Value != id {
		t.Errorf("stored instance ID mismatch: got %s, want %s", setting.Value, id)
	}
}

func TestGetOrCreateInstanceID_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	id1, err := GetOrCreateInstanceID(db)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	id2, err := GetOrCreateInstanceID(db)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("instance ID changed between calls: %s, %s", id1, id2)
	}

	got, err := GetInstanceID(db)
	if err != nil {
		t.Fatalf("GetInstanceID failed: %v", err)
	}
	if got != id1 {
		t.Errorf("GetInstanceID returned %s, want %s", got, id1)
	}
}

func TestGetInstanceID_ErrorsWhenNotInitialized(t *testing.T) {
	db := setupTestDB(t)
	if _, err := GetInstanceID(db); err == nil {
		t.Error("GetInstanceID should error when instance ID is not initialized")
	}
}

func TestParseEmailList(t *testing.T) {
	got := ParseEmailList(" Ops@Haven.org , ,lead@haven.org")
	if len(got) != 2 || got[0] != "ops@haven.org" || got[1] != "lead@haven.org" {
		t.Errorf("unexpected list: %v", got)
	}
	if ParseEmailList("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestPromotePlatformAdmins(t *testing.T) {
	db := setupTestDB(t)

	ops := models.User{ExternalID: "sub-ops", Email: "Ops@Haven.org"}
	staff := models.User{ExternalID: "sub-staff", Email: "staff@haven.org"}
	if err := db.Create(&ops).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatal(err)
	}

	if err := PromotePlatformAdmins(db, []string{"ops@haven.org"}); err != nil {
		t.Fatalf("PromotePlatformAdmins: %v", err)
	}

	db.First(&ops, "id = ?", ops.ID)
	db.First(&staff, "id = ?", staff.ID)
	if !ops.PlatformAdmin {
		t.Error("ops should be promoted")
	}
	if staff.PlatformAdmin {
		t.Error("staff should not be promoted")
	}
}
