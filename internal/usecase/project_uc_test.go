//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/usecase"
)

type projectFixture struct {
	users    *MockUserRepo
	projects *MockProjectRepo
	uc       usecase.ProjectUseCase

	owner  *model.User
	member *model.User
	other  *model.User
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	f := &projectFixture{
		users:    NewMockUserRepo(),
		projects: NewMockProjectRepo(),
	}
	f.uc = usecase.NewProjectUseCase(f.projects, f.users, NewMockTxManager(), newTestLogger())
	f.owner = seedUser(t, f.users, "owner-1", "owner@example.com")
	f.member = seedUser(t, f.users, "member-1", "member@example.com")
	f.other = seedUser(t, f.users, "other-1", "other@example.com")
	return f
}

func TestProjectUC_CreateAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("owner and members can read, strangers cannot", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "Marketing site")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.owner, p.ID, f.member.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		// --- Act / Assert ---
		if _, err := f.uc.Get(ctx, f.owner, p.ID); err != nil {
			t.Errorf("owner read failed: %v", err)
		}
		if _, err := f.uc.Get(ctx, f.member, p.ID); err != nil {
			t.Errorf("member read failed: %v", err)
		}
		if _, err := f.uc.Get(ctx, f.other, p.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden for non-member, got %v", err)
		}
	})

	t.Run("create without a name is rejected", func(t *testing.T) {
		f := newProjectFixture(t)
		if _, err := f.uc.Create(ctx, f.owner, "", "desc"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestProjectUC_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists owned and member projects only", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		owned, err := f.uc.Create(ctx, f.owner, "Owned", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		shared, err := f.uc.Create(ctx, f.other, "Shared", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.other, shared.ID, f.owner.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if _, err := f.uc.Create(ctx, f.member, "Unrelated", ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// --- Act ---
		listed, err := f.uc.List(ctx, f.owner, 0, 20)

		// --- Assert ---
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 projects, got %d", len(listed))
		}
		ids := map[string]bool{listed[0].ID: true, listed[1].ID: true}
		if !ids[owned.ID] || !ids[shared.ID] {
			t.Errorf("unexpected projects listed: %v", ids)
		}
	})
}

func TestProjectUC_Membership(t *testing.T) {
	ctx := context.Background()

	t.Run("only the owner or an admin may add members", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// --- Act / Assert ---
		if err := f.uc.AddMember(ctx, f.other, p.ID, f.member.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("adding an unknown user fails", func(t *testing.T) {
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.owner, p.ID, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("a member may remove themselves", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.owner, p.ID, f.member.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		// --- Act ---
		if err := f.uc.RemoveMember(ctx, f.member, p.ID, f.member.ID); err != nil {
			t.Fatalf("self-removal failed: %v", err)
		}

		// --- Assert ---
		stored, _ := f.projects.FindByID(ctx, nil, p.ID)
		for _, id := range stored.MemberIDs {
			if id == f.member.ID {
				t.Error("member still present after self-removal")
			}
		}
	})

	t.Run("a member may not remove another member", func(t *testing.T) {
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.owner, p.ID, f.member.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if err := f.uc.RemoveMember(ctx, f.member, p.ID, f.owner.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestProjectUC_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates, member may not", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "old")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := f.uc.AddMember(ctx, f.owner, p.ID, f.member.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		// --- Act / Assert ---
		out, err := f.uc.Update(ctx, f.owner, p.ID, "Website v2", "new")
		if err != nil {
			t.Fatalf("owner update failed: %v", err)
		}
		if out.Name != "Website v2" || out.Description != "new" {
			t.Errorf("unexpected project after update: %+v", out)
		}
		if _, err := f.uc.Update(ctx, f.member, p.ID, "X", ""); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden for member update, got %v", err)
		}
	})

	t.Run("delete removes the project for everyone", func(t *testing.T) {
		// --- Arrange ---
		f := newProjectFixture(t)
		p, err := f.uc.Create(ctx, f.owner, "Website", "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// --- Act ---
		if err := f.uc.Delete(ctx, f.owner, p.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		// --- Assert ---
		if _, err := f.uc.Get(ctx, f.owner, p.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
