package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/relaybot/core/logger"

	"log/slog"
)

// Role is the authorization tier of a Telegram user.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleBlacklisted Role = "blacklisted"
	RoleUser        Role = "user"
)

// Store holds the in-memory access lists and keeps them in sync with a
// Persister. All mutations are persisted before they become visible; a failed
// Save rolls the in-memory change back.
type Store struct {
	mu        sync.RWMutex
	token     string
	supers    map[int64]struct{}
	admins    map[int64]struct{}
	blacklist map[int64]struct{}
	persister Persister
}

// NewStore loads the access record from the persister and builds a store
// around it.
func NewStore(p Persister) (*Store, error) {
	start := time.Now()
	lists, err := p.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		token:     lists.Token,
		supers:    toSet(lists.SuperAdmins),
		admins:    toSet(lists.Admins),
		blacklist: toSet(lists.Blacklist),
		persister: p,
	}

	logger.AUTH.Info("access lists loaded",
		slog.String("event", "auth.loaded"),
		slog.Int("super_admins", len(s.supers)),
		slog.Int("admins", len(s.admins)),
		slog.Int("blacklisted", len(s.blacklist)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return s, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Token returns the bot token stored in the access record, if any.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Classify resolves the role of a user id. Super-admin wins over admin,
// admin wins over blacklist.
func (s *Store) Classify(id int64) Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.hasSuper(id):
		return RoleSuperAdmin
	case s.hasAdmin(id):
		return RoleAdmin
	case s.hasBlacklist(id):
		return RoleBlacklisted
	default:
		return RoleUser
	}
}

// IsSuperAdmin reports whether id belongs to a super-admin.
func (s *Store) IsSuperAdmin(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSuper(id)
}

// IsBlacklisted reports whether id is on the blacklist.
func (s *Store) IsBlacklisted(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasBlacklist(id)
}

func (s *Store) hasSuper(id int64) bool     { _, ok := s.supers[id]; return ok }
func (s *Store) hasAdmin(id int64) bool     { _, ok := s.admins[id]; return ok }
func (s *Store) hasBlacklist(id int64) bool { _, ok := s.blacklist[id]; return ok }

// Recipients returns the union of super-admin and admin ids, deduplicated
// and sorted.
func (s *Store) Recipients() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{}, len(s.supers)+len(s.admins))
	out := make([]int64, 0, len(s.supers)+len(s.admins))
	for id := range s.supers {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for id := range s.admins {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// Snapshot returns a copy of the current access record.
func (s *Store) Snapshot() Lists {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listsLocked()
}

// Counts returns the sizes of the three lists.
func (s *Store) Counts() (supers, admins, blacklisted int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.supers), len(s.admins), len(s.blacklist)
}

func (s *Store) listsLocked() Lists {
	return Lists{
		Token:       s.token,
		SuperAdmins: setToSorted(s.supers),
		Admins:      setToSorted(s.admins),
		Blacklist:   setToSorted(s.blacklist),
	}
}

func setToSorted(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

// AddAdmin promotes a user to admin.
func (s *Store) AddAdmin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSuper(id) || s.hasAdmin(id) {
		return ErrAlreadyPrivileged
	}

	s.admins[id] = struct{}{}
	if err := s.persistLocked("add_admin", id); err != nil {
		delete(s.admins, id)
		return err
	}
	return nil
}

// RemoveAdmin demotes an admin back to a regular user.
func (s *Store) RemoveAdmin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSuper(id) {
		return ErrCannotRemoveSuperAdmin
	}
	if !s.hasAdmin(id) {
		return ErrNotAnAdmin
	}

	delete(s.admins, id)
	if err := s.persistLocked("remove_admin", id); err != nil {
		s.admins[id] = struct{}{}
		return err
	}
	return nil
}

// AddBlacklist puts a user on the blacklist.
func (s *Store) AddBlacklist(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSuper(id) || s.hasAdmin(id) {
		return ErrPrivilegedActor
	}
	if s.hasBlacklist(id) {
		return ErrAlreadyBlacklisted
	}

	s.blacklist[id] = struct{}{}
	if err := s.persistLocked("add_blacklist", id); err != nil {
		delete(s.blacklist, id)
		return err
	}
	return nil
}

// RemoveBlacklist removes a user from the blacklist.
func (s *Store) RemoveBlacklist(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasBlacklist(id) {
		return ErrNotBlacklisted
	}

	delete(s.blacklist, id)
	if err := s.persistLocked("remove_blacklist", id); err != nil {
		s.blacklist[id] = struct{}{}
		return err
	}
	return nil
}

func (s *Store) persistLocked(op string, target int64) error {
	start := time.Now()
	if err := s.persister.Save(s.listsLocked()); err != nil {
		logger.AUTH.Error("access persist failed, rolling back",
			slog.String("event", "auth.persist.failed"),
			slog.String("op", op),
			slog.Int64("target_id", target),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("auth: persist %s: %w", op, err)
	}
	logger.AUTH.Info("access lists persisted",
		slog.String("event", "auth.persist"),
		slog.String("op", op),
		slog.Int64("target_id", target),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
