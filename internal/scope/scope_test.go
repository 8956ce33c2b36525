package scope

import (
	"testing"

	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/types"
)

func TestResolve(t *testing.T) {
	ownerID := types.NewID()

	tests := []struct {
		name     string
		user     *auth.User
		want     Scope
		province string
	}{
		{
			name: "nil user resolves to none",
			user: nil,
			want: ScopeNone,
		},
		{
			name: "global admin sees everything",
			user: &auth.User{ID: types.NewID(), Role: auth.RoleAdmin, Staff: true},
			want: ScopeAll,
		},
		{
			name:     "province admin is scoped to province",
			user:     &auth.User{ID: types.NewID(), Role: auth.RoleAdmin, Staff: true, Province: "Gauteng"},
			want:     ScopeProvince,
			province: "Gauteng",
		},
		{
			name: "admin without staff flag is not global admin",
			user: &auth.User{ID: types.NewID(), Role: auth.RoleAdmin, Staff: false},
			want: ScopeNone,
		},
		{
			name: "owner is scoped to own records",
			user: &auth.User{ID: ownerID, Role: auth.RoleOwner},
			want: ScopeOwner,
		},
		{
			name: "consumer gets nothing",
			user: &auth.User{ID: types.NewID(), Role: auth.RoleConsumer},
			want: ScopeNone,
		},
		{
			name: "unknown role fails closed",
			user: &auth.User{ID: types.NewID(), Role: "auditor", Staff: true},
			want: ScopeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Resolve(tt.user)
			if dec.Scope != tt.want {
				t.Errorf("scope = %s, want %s", dec.Scope, tt.want)
			}
			if dec.Province != tt.province {
				t.Errorf("province = %q, want %q", dec.Province, tt.province)
			}
			if tt.want == ScopeOwner && dec.OwnerID != tt.user.ID {
				t.Errorf("owner = %s, want %s", dec.OwnerID, tt.user.ID)
			}
		})
	}
}

type shopRecord struct {
	owner    types.ID
	province string
}

type ticketRecord struct {
	owner types.ID
}

func TestFilter(t *testing.T) {
	ownerA := types.NewID()
	ownerB := types.NewID()

	shops := []shopRecord{
		{owner: ownerA, province: "Gauteng"},
		{owner: ownerB, province: "Gauteng"},
		{owner: ownerA, province: "Western Cape"},
	}
	shopDesc := Descriptor[shopRecord]{
		Province: func(s shopRecord) string { return s.province },
		Owner:    func(s shopRecord) types.ID { return s.owner },
	}

	t.Run("all scope passes everything through", func(t *testing.T) {
		got := Filter(Decision{Scope: ScopeAll}, shops, shopDesc)
		if len(got) != 3 {
			t.Errorf("got %d shops, want 3", len(got))
		}
	})

	t.Run("province scope filters by province", func(t *testing.T) {
		got := Filter(Decision{Scope: ScopeProvince, Province: "Gauteng"}, shops, shopDesc)
		if len(got) != 2 {
			t.Fatalf("got %d shops, want 2", len(got))
		}
		for _, s := range got {
			if s.province != "Gauteng" {
				t.Errorf("leaked shop from %s", s.province)
			}
		}
	})

	t.Run("owner scope filters by owner", func(t *testing.T) {
		got := Filter(Decision{Scope: ScopeOwner, OwnerID: ownerA}, shops, shopDesc)
		if len(got) != 2 {
			t.Fatalf("got %d shops, want 2", len(got))
		}
		for _, s := range got {
			if s.owner != ownerA {
				t.Error("leaked shop owned by another account")
			}
		}
	})

	t.Run("none scope returns nothing", func(t *testing.T) {
		got := Filter(Decision{Scope: ScopeNone}, shops, shopDesc)
		if len(got) != 0 {
			t.Errorf("got %d shops, want 0", len(got))
		}
	})

	t.Run("province scope denies resources without a province dimension", func(t *testing.T) {
		tickets := []ticketRecord{{owner: ownerA}, {owner: ownerB}}
		desc := Descriptor[ticketRecord]{
			Owner: func(tk ticketRecord) types.ID { return tk.owner },
		}
		got := Filter(Decision{Scope: ScopeProvince, Province: "Gauteng"}, tickets, desc)
		if len(got) != 0 {
			t.Errorf("got %d tickets, want 0", len(got))
		}
	})
}
