package auth

import (
	"errors"
	"testing"
)

type fakePersister struct {
	lists    Lists
	saves    int
	failSave error
}

func (f *fakePersister) Load() (Lists, error) { return f.lists.Clone(), nil }

func (f *fakePersister) Save(lists Lists) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.lists = lists.Clone()
	f.saves++
	return nil
}

func newTestStore(t *testing.T, p *fakePersister) *Store {
	t.Helper()
	s, err := NewStore(p)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestClassifyPrecedence(t *testing.T) {
	p := &fakePersister{lists: Lists{
		SuperAdmins: []int64{1, 3},
		Admins:      []int64{2, 3},
		Blacklist:   []int64{2, 4},
	}}
	s := newTestStore(t, p)

	cases := []struct {
		id   int64
		want Role
	}{
		{1, RoleSuperAdmin},
		{3, RoleSuperAdmin},
		{2, RoleAdmin},
		{4, RoleBlacklisted},
		{99, RoleUser},
	}
	for _, tc := range cases {
		if got := s.Classify(tc.id); got != tc.want {
			t.Fatalf("Classify(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestAddAdminPersistsAndRejectsPrivileged(t *testing.T) {
	p := &fakePersister{lists: Lists{SuperAdmins: []int64{1}}}
	s := newTestStore(t, p)

	if err := s.AddAdmin(42); err != nil {
		t.Fatalf("AddAdmin(42): %v", err)
	}
	if p.saves != 1 {
		t.Fatalf("saves = %d, want 1", p.saves)
	}
	if got := s.Classify(42); got != RoleAdmin {
		t.Fatalf("Classify(42) = %q, want admin", got)
	}

	if err := s.AddAdmin(42); !errors.Is(err, ErrAlreadyPrivileged) {
		t.Fatalf("AddAdmin(42) again = %v, want ErrAlreadyPrivileged", err)
	}
	if err := s.AddAdmin(1); !errors.Is(err, ErrAlreadyPrivileged) {
		t.Fatalf("AddAdmin(super) = %v, want ErrAlreadyPrivileged", err)
	}
}

func TestRemoveAdmin(t *testing.T) {
	p := &fakePersister{lists: Lists{SuperAdmins: []int64{1}, Admins: []int64{2}}}
	s := newTestStore(t, p)

	if err := s.RemoveAdmin(1); !errors.Is(err, ErrCannotRemoveSuperAdmin) {
		t.Fatalf("RemoveAdmin(super) = %v, want ErrCannotRemoveSuperAdmin", err)
	}
	if err := s.RemoveAdmin(99); !errors.Is(err, ErrNotAnAdmin) {
		t.Fatalf("RemoveAdmin(unknown) = %v, want ErrNotAnAdmin", err)
	}
	if err := s.RemoveAdmin(2); err != nil {
		t.Fatalf("RemoveAdmin(2): %v", err)
	}
	if got := s.Classify(2); got != RoleUser {
		t.Fatalf("Classify(2) after removal = %q, want user", got)
	}
}

func TestBlacklistRules(t *testing.T) {
	p := &fakePersister{lists: Lists{SuperAdmins: []int64{1}, Admins: []int64{2}}}
	s := newTestStore(t, p)

	if err := s.AddBlacklist(1); !errors.Is(err, ErrPrivilegedActor) {
		t.Fatalf("AddBlacklist(super) = %v, want ErrPrivilegedActor", err)
	}
	if err := s.AddBlacklist(2); !errors.Is(err, ErrPrivilegedActor) {
		t.Fatalf("AddBlacklist(admin) = %v, want ErrPrivilegedActor", err)
	}
	if err := s.AddBlacklist(7); err != nil {
		t.Fatalf("AddBlacklist(7): %v", err)
	}
	if err := s.AddBlacklist(7); !errors.Is(err, ErrAlreadyBlacklisted) {
		t.Fatalf("AddBlacklist(7) again = %v, want ErrAlreadyBlacklisted", err)
	}
	if !s.IsBlacklisted(7) {
		t.Fatalf("IsBlacklisted(7) = false, want true")
	}
	if err := s.RemoveBlacklist(8); !errors.Is(err, ErrNotBlacklisted) {
		t.Fatalf("RemoveBlacklist(8) = %v, want ErrNotBlacklisted", err)
	}
	if err := s.RemoveBlacklist(7); err != nil {
		t.Fatalf("RemoveBlacklist(7): %v", err)
	}
	if s.IsBlacklisted(7) {
		t.Fatalf("IsBlacklisted(7) = true after removal")
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	p := &fakePersister{lists: Lists{SuperAdmins: []int64{1}}}
	s := newTestStore(t, p)

	p.failSave = errors.New("disk full")
	if err := s.AddAdmin(42); err == nil {
		t.Fatalf("AddAdmin with failing persister: want error")
	}
	if got := s.Classify(42); got != RoleUser {
		t.Fatalf("Classify(42) after rollback = %q, want user", got)
	}

	p.failSave = nil
	if err := s.AddAdmin(42); err != nil {
		t.Fatalf("AddAdmin after recovery: %v", err)
	}
}

func TestRecipientsUnionSorted(t *testing.T) {
	p := &fakePersister{lists: Lists{
		SuperAdmins: []int64{5, 1},
		Admins:      []int64{3, 5, 2},
	}}
	s := newTestStore(t, p)

	got := s.Recipients()
	want := []int64{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("Recipients() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Recipients() = %v, want %v", got, want)
		}
	}
}
