package domain

import "testing"

func TestRoleCapabilities(t *testing.T) {
	if !RoleAdmin.CanWrite() || !RoleAdmin.CanRead() {
		t.Fatalf("admin should read and write")
	}
	if !RoleWriter.CanWrite() || !RoleWriter.CanRead() {
		t.Fatalf("writer should read and write")
	}
	if RoleReader.CanWrite() {
		t.Fatalf("reader must not write")
	}
	if !RoleReader.CanRead() {
		t.Fatalf("reader should read")
	}
}

func TestGroupRoleOf(t *testing.T) {
	g := PermissionGroup{
		ID: "g1",
		Members: []Membership{
			{PrincipalID: "alice", Role: RoleAdmin},
			{PrincipalID: "worker", Role: RoleWriter},
		},
	}

	if role, ok := g.RoleOf("alice"); !ok || role != RoleAdmin {
		t.Fatalf("expected alice admin, got %q %v", role, ok)
	}
	if !g.CanWrite("worker") {
		t.Fatalf("worker should write")
	}
	if g.CanRead("mallory") {
		t.Fatalf("non-member must not read")
	}
}

func TestGroupEveryoneGrant(t *testing.T) {
	g := PermissionGroup{
		ID: "g1",
		Members: []Membership{
			{PrincipalID: "alice", Role: RoleAdmin},
			{PrincipalID: EveryonePrincipalID, Role: RoleReader},
		},
	}

	if !g.CanRead("stranger") {
		t.Fatalf("everyone grant should allow any principal to read")
	}
	if g.CanWrite("stranger") {
		t.Fatalf("everyone reader grant must not allow writes")
	}
	// El rol explicito del miembro gana sobre el grant de everyone.
	if role, _ := g.RoleOf("alice"); role != RoleAdmin {
		t.Fatalf("explicit membership should win over everyone, got %q", role)
	}
}

func TestReactionSetUpsert(t *testing.T) {
	r := ReactionSet{}
	r.Set("session-1", "thumbs-up")
	r.Set("session-1", "heart")
	r.Set("session-2", "thumbs-up")

	if len(r) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r))
	}
	if r["session-1"] != "heart" {
		t.Fatalf("expected upsert to replace value, got %q", r["session-1"])
	}
}
