package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	store := NewFileStore(path)

	lists, err := store.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(lists.SuperAdmins) != 0 || len(lists.Admins) != 0 || len(lists.Blacklist) != 0 {
		t.Fatalf("fresh record not empty: %+v", lists)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("access file was not created: %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	store := NewFileStore(path)

	in := Lists{
		Token:       "123:abc",
		SuperAdmins: []int64{10},
		Admins:      []int64{30, 20},
		Blacklist:   []int64{40},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Token != in.Token {
		t.Fatalf("Token = %q, want %q", out.Token, in.Token)
	}
	if len(out.Admins) != 2 || out.Admins[0] != 20 || out.Admins[1] != 30 {
		t.Fatalf("Admins = %v, want sorted [20 30]", out.Admins)
	}
	if len(out.SuperAdmins) != 1 || out.SuperAdmins[0] != 10 {
		t.Fatalf("SuperAdmins = %v, want [10]", out.SuperAdmins)
	}
	if len(out.Blacklist) != 1 || out.Blacklist[0] != 40 {
		t.Fatalf("Blacklist = %v, want [40]", out.Blacklist)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatalf("Load on corrupt file: want error")
	}
}
