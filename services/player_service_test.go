package services

import (
	"errors"
	"testing"
)

func TestPlayerCreateRejectsDuplicateName(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	if _, err := svc.Create("Alice"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	_, err := svc.Create("Alice")
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// The registry must be unchanged after the rejected insert.
	players, err := svc.ListAll()
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(players))
	}
}

func TestPlayerNamesAreCaseSensitive(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	if _, err := svc.Create("alice"); err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := svc.Create("Alice"); err != nil {
		t.Fatalf("different case should not collide: %v", err)
	}
}

func TestPlayerListOrderedByName(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	for _, name := range []string{"Charlie", "Alice", "Bob"} {
		if _, err := svc.Create(name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	players, err := svc.ListAll()
	if err != nil {
		t.Fatalf("list players: %v", err)
	}

	want := []string{"Alice", "Bob", "Charlie"}
	for i, name := range want {
		if players[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, players[i].Name)
		}
	}
}

func TestPlayerDeactivationOnlyHidesFromActiveListing(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	alice, err := svc.Create("Alice")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := svc.Create("Bob"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	if _, err := svc.SetActive(alice.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	all, err := svc.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("deactivation must not remove players, got %d", len(all))
	}

	active, err := svc.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Bob" {
		t.Fatalf("expected only Bob active, got %+v", active)
	}

	// Re-activation brings the player back.
	if _, err := svc.SetActive(alice.ID, true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	active, _ = svc.ListActive()
	if len(active) != 2 {
		t.Fatalf("expected 2 active players, got %d", len(active))
	}
}

func TestPlayerRename(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	alice, err := svc.Create("Alice")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if _, err := svc.Create("Bob"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	if _, err := svc.Rename(alice.ID, "Bob"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	renamed, err := svc.Rename(alice.ID, "Alicia")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.ID != alice.ID {
		t.Fatalf("rename must keep the id, got %d want %d", renamed.ID, alice.ID)
	}

	got, err := svc.Get(alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Alicia" {
		t.Fatalf("expected Alicia, got %s", got.Name)
	}

	// Renaming to the current name is allowed.
	if _, err := svc.Rename(alice.ID, "Alicia"); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestPlayerUnknownIDReturnsNotFound(t *testing.T) {
	svc := NewPlayerService(newTestDB(t))

	if _, err := svc.Get(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SetActive(42, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Rename(42, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
