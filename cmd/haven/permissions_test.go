package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/havenhq/haven/internal/permissions"
	"gopkg.in/yaml.v3"
)

func TestWritePermissions_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writePermissions(&buf, []permissions.Role{permissions.RoleManager}, "json"); err != nil {
		t.Fatalf("writePermissions: %v", err)
	}

	var entries []roleEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(entries) != 1 || entries[0].Role != "manager" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(entries[0].Permissions) != len(permissions.PermissionsFor(permissions.RoleManager)) {
		t.Errorf("got %d permissions", len(entries[0].Permissions))
	}
}

func TestWritePermissions_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writePermissions(&buf, permissions.Roles(), "yaml"); err != nil {
		t.Fatalf("writePermissions: %v", err)
	}

	var entries []roleEntry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(entries) != len(permissions.Roles()) {
		t.Fatalf("expected %d roles, got %d", len(permissions.Roles()), len(entries))
	}
	last := entries[len(entries)-1]
	if last.Role != "platform_admin" || len(last.Permissions) != 1 || last.Permissions[0] != "*" {
		t.Errorf("unexpected platform admin entry: %+v", last)
	}
}

func TestWritePermissions_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := writePermissions(&buf, []permissions.Role{permissions.RoleResident}, "table"); err != nil {
		t.Fatalf("writePermissions: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ROLE") || !strings.Contains(out, "read:own_profile") {
		t.Errorf("unexpected table output:\n%s", out)
	}
}

func TestWritePermissions_UnknownFormat(t *testing.T) {
	if err := writePermissions(&bytes.Buffer{}, permissions.Roles(), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
