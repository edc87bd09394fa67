package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

func seedFile(t *testing.T, db *gorm.DB, inst *model.Instrument, path string, owner *uint) *model.FileRecord {
	t.Helper()

	return mustCreate(t, db, &model.FileRecord{
		PersistentID: "ark:/99999/fk4" + path, PersistentIDScheme: model.SchemeARK,
		InstrumentID: inst.ID, SourcePath: path, Filename: path,
		FirstDiscoveredAt: time.Now(), OwnerID: owner,
	})
}

func visibleIDs(t *testing.T, db *gorm.DB, user *model.User) map[uint]bool {
	t.Helper()

	files, err := NewAccessServiceWithDB(db).ListVisibleFiles(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	ids := make(map[uint]bool, len(files))
	for _, f := range files {
		ids[f.ID] = true
	}

	return ids
}

func TestVisibilityRules(t *testing.T) {
	db := newTestDB(t)
	inst := mustCreate(t, db, &model.Instrument{Name: "m1", Adapter: model.AdapterRclone})

	alice := mustCreate(t, db, &model.User{Email: "alice@lab", Name: "alice"})
	bob := mustCreate(t, db, &model.User{Email: "bob@lab", Name: "bob"})
	admin := mustCreate(t, db, &model.User{Email: "root@lab", Role: model.RoleAdmin})

	lab := mustCreate(t, db, &model.Group{Name: "lab"})
	mustCreate(t, db, &model.GroupMembership{GroupID: lab.ID, UserID: alice.ID})

	proj := mustCreate(t, db, &model.Project{Name: "atlas"})
	mustCreate(t, db, &model.ProjectMembership{ProjectID: proj.ID, MemberType: model.MemberUser, MemberID: bob.ID})

	// alice 经由 lab 组参与 atlas2
	proj2 := mustCreate(t, db, &model.Project{Name: "atlas2"})
	mustCreate(t, db, &model.ProjectMembership{ProjectID: proj2.ID, MemberType: model.MemberGroup, MemberID: lab.ID})

	owned := seedFile(t, db, inst, "owned.tif", &alice.ID)
	direct := seedFile(t, db, inst, "direct.tif", nil)
	viaGroup := seedFile(t, db, inst, "group.tif", nil)
	viaProject := seedFile(t, db, inst, "project.tif", nil)
	viaProjectGroup := seedFile(t, db, inst, "projectgroup.tif", nil)
	hidden := seedFile(t, db, inst, "hidden.tif", nil)

	mustCreate(t, db, &model.FileAccessGrant{FileID: direct.ID, GranteeType: model.GranteeUser, GranteeID: alice.ID})
	mustCreate(t, db, &model.FileAccessGrant{FileID: viaGroup.ID, GranteeType: model.GranteeGroup, GranteeID: lab.ID})
	mustCreate(t, db, &model.FileAccessGrant{FileID: viaProject.ID, GranteeType: model.GranteeProject, GranteeID: proj.ID})
	mustCreate(t, db, &model.FileAccessGrant{FileID: viaProjectGroup.ID, GranteeType: model.GranteeProject, GranteeID: proj2.ID})

	t.Run("alice", func(t *testing.T) {
		ids := visibleIDs(t, db, alice)

		for _, want := range []uint{owned.ID, direct.ID, viaGroup.ID, viaProjectGroup.ID} {
			if !ids[want] {
				t.Errorf("file %d should be visible to alice", want)
			}
		}

		if ids[viaProject.ID] || ids[hidden.ID] {
			t.Errorf("alice sees too much: %v", ids)
		}
	})

	t.Run("bob", func(t *testing.T) {
		ids := visibleIDs(t, db, bob)

		if !ids[viaProject.ID] {
			t.Error("direct project membership should grant visibility")
		}

		if len(ids) != 1 {
			t.Errorf("bob ids = %v", ids)
		}
	})

	t.Run("admin bypasses", func(t *testing.T) {
		ids := visibleIDs(t, db, admin)

		if len(ids) != 6 {
			t.Errorf("admin sees %d files, want all 6", len(ids))
		}
	})
}

func TestGroupRemovalRevokesVisibility(t *testing.T) {
	db := newTestDB(t)
	inst := mustCreate(t, db, &model.Instrument{Name: "m1", Adapter: model.AdapterRclone})

	u := mustCreate(t, db, &model.User{Email: "u@lab"})
	g := mustCreate(t, db, &model.Group{Name: "g"})
	m := mustCreate(t, db, &model.GroupMembership{GroupID: g.ID, UserID: u.ID})

	f := seedFile(t, db, inst, "f.tif", nil)
	mustCreate(t, db, &model.FileAccessGrant{FileID: f.ID, GranteeType: model.GranteeGroup, GranteeID: g.ID})

	if !visibleIDs(t, db, u)[f.ID] {
		t.Fatal("file should be visible via group membership")
	}

	if err := db.Delete(m).Error; err != nil {
		t.Fatal(err)
	}

	if visibleIDs(t, db, u)[f.ID] {
		t.Fatal("visibility must be recomputed after leaving the group")
	}
}

func TestCanAccess(t *testing.T) {
	db := newTestDB(t)
	inst := mustCreate(t, db, &model.Instrument{Name: "m1", Adapter: model.AdapterRclone})

	u := mustCreate(t, db, &model.User{Email: "u@lab"})
	f := seedFile(t, db, inst, "f.tif", nil)

	svc := NewAccessServiceWithDB(db)

	ok, err := svc.CanAccess(context.Background(), u, f.ID)
	if err != nil || ok {
		t.Fatalf("ok = %v, err = %v, want no access", ok, err)
	}

	if _, err := svc.Grant(context.Background(), f.ID, model.GranteeUser, u.ID); err != nil {
		t.Fatal(err)
	}

	ok, err = svc.CanAccess(context.Background(), u, f.ID)
	if err != nil || !ok {
		t.Fatalf("ok = %v, err = %v, want access after grant", ok, err)
	}
}

func TestGrantRejectsUnknownGranteeType(t *testing.T) {
	db := newTestDB(t)
	inst := mustCreate(t, db, &model.Instrument{Name: "m1", Adapter: model.AdapterRclone})
	f := seedFile(t, db, inst, "f.tif", nil)

	svc := NewAccessServiceWithDB(db)

	if _, err := svc.Grant(context.Background(), f.ID, model.GranteeType("team"), 1); err == nil {
		t.Fatal("unknown grantee type must be rejected")
	}

	var count int64
	if err := db.Model(&model.FileAccessGrant{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}

	if count != 0 {
		t.Fatalf("grants persisted = %d, want 0", count)
	}
}
