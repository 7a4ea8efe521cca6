package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/officechat-backend/internal/data/repos/testutil"
	types "github.com/yungbote/officechat-backend/internal/domain/user"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	bob := testutil.SeedUser(t, ctx, tx, "bob@example.com", "Bob", types.RoleEmployee)
	alice := testutil.SeedUser(t, ctx, tx, "alice@example.com", "Alice", types.RoleAdmin)
	gone := testutil.SeedUser(t, ctx, tx, "gone@example.com", "Gone", types.RoleManager)

	if err := repo.SetActive(ctx, tx, gone.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	active, err := repo.ListActive(ctx, tx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("ListActive: want 2 got %d", len(active))
	}
	if active[0].ID != alice.ID || active[1].ID != bob.ID {
		t.Fatalf("ListActive order: got %s, %s", active[0].Name, active[1].Name)
	}

	if u, err := repo.GetActiveByID(ctx, tx, gone.ID); err != nil || u != nil {
		t.Fatalf("GetActiveByID(inactive): u=%v err=%v", u, err)
	}
	if u, err := repo.GetActiveByID(ctx, tx, bob.ID); err != nil || u == nil || u.Name != "Bob" {
		t.Fatalf("GetActiveByID(bob): u=%v err=%v", u, err)
	}

	if u, err := repo.GetByEmail(ctx, tx, "alice@example.com"); err != nil || u == nil || u.ID != alice.ID {
		t.Fatalf("GetByEmail: u=%v err=%v", u, err)
	}
	if u, err := repo.GetByEmail(ctx, tx, "nobody@example.com"); err != nil || u != nil {
		t.Fatalf("GetByEmail(missing): u=%v err=%v", u, err)
	}
	if ok, err := repo.EmailExists(ctx, tx, "bob@example.com"); err != nil || !ok {
		t.Fatalf("EmailExists: ok=%v err=%v", ok, err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{alice.ID, gone.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
}

func TestUserRepoCreate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(ctx, nil, []*types.User{{
		Email:    "new@example.com",
		Password: "hash",
		Name:     "New",
		Role:     types.RoleEmployee,
		Active:   true,
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected generated id, got %+v", created)
	}
	if _, err := repo.Create(ctx, nil, []*types.User{{Email: "new@example.com", Password: "x", Name: "Dup", Role: types.RoleEmployee}}); err == nil {
		t.Fatalf("Create: expected unique violation for duplicate email")
	}
}
