package model

import (
	"encoding/json"
	"testing"
)

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role    Role
		minimum Role
		want    bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleTenantAdmin, false},
		{RoleUser, RoleSuperAdmin, false},
		{RoleTenantAdmin, RoleUser, true},
		{RoleTenantAdmin, RoleTenantAdmin, true},
		{RoleTenantAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleUser, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{Role("bogus"), RoleUser, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.minimum); got != tc.want {
			t.Fatalf("%s.AtLeast(%s): got %v, want %v", tc.role, tc.minimum, got, tc.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleTenantAdmin, RoleSuperAdmin} {
		if !r.Valid() {
			t.Fatalf("%s should be valid", r)
		}
	}
	if Role("admin").Valid() {
		t.Fatalf("unknown role accepted")
	}
}

func TestTaskPriorityRank(t *testing.T) {
	if !(PriorityHigh.Rank() > PriorityMedium.Rank() && PriorityMedium.Rank() > PriorityLow.Rank()) {
		t.Fatalf("priority ranks out of order: %d %d %d",
			PriorityHigh.Rank(), PriorityMedium.Rank(), PriorityLow.Rank())
	}
	if TaskPriority("urgent").Rank() != 0 {
		t.Fatalf("unknown priority should rank lowest")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	m := Metadata{"field": "status", "old": "todo", "new": "completed"}
	value, err := m.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded Metadata
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if decoded["field"] != "status" || decoded["new"] != "completed" {
		t.Fatalf("round trip lost data: %v", decoded)
	}
}

func TestMetadataScanNil(t *testing.T) {
	var m Metadata
	if err := m.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil metadata, got %v", m)
	}
}

func TestMetadataNilValue(t *testing.T) {
	var m Metadata
	v, err := m.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Fatalf("nil metadata should store SQL NULL, got %v", v)
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	raw, err := json.Marshal(User{Email: "a@b.test", PasswordHash: "secret-hash"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) == "" || json.Valid(raw) == false {
		t.Fatalf("bad json: %s", raw)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for key := range decoded {
		if key == "passwordHash" || key == "password_hash" {
			t.Fatalf("password hash leaked into JSON: %s", raw)
		}
	}
}
