package services

import (
	"errors"
	"testing"

	"github.com/datalings/onthescales/model"
)

func TestSettingCreateDefaults(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	rounds, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeNumber})
	if err != nil {
		t.Fatalf("create number setting: %v", err)
	}
	if !rounds.IsActive {
		t.Fatal("non-list settings start active")
	}

	categories, err := svc.Create(CreateSettingInput{Name: "Categories", Type: model.SettingTypeList})
	if err != nil {
		t.Fatalf("create list setting: %v", err)
	}
	if categories.IsActive {
		t.Fatal("list settings must start inactive, they have no items yet")
	}
}

func TestSettingCreateRejectsDuplicateAndUnknownType(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	if _, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeNumber}); err != nil {
		t.Fatalf("create setting: %v", err)
	}
	if _, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeBoolean}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.Create(CreateSettingInput{Name: "Weird", Type: "text"}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for unknown type, got %v", err)
	}
}

func TestListSettingActivationRequiresItems(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	categories, err := svc.Create(CreateSettingInput{Name: "Categories", Type: model.SettingTypeList})
	if err != nil {
		t.Fatalf("create list setting: %v", err)
	}

	if _, err := svc.SetActive(categories.ID, true); !errors.Is(err, ErrActivationBlocked) {
		t.Fatalf("expected ErrActivationBlocked, got %v", err)
	}

	if _, err := svc.AddItem(categories.ID, "A", 0); err != nil {
		t.Fatalf("add item: %v", err)
	}

	activated, err := svc.SetActive(categories.ID, true)
	if err != nil {
		t.Fatalf("activation with one item should succeed: %v", err)
	}

	got, err := svc.Get(activated.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsActive {
		t.Fatal("setting should be active after activation")
	}

	// Deactivation is never blocked.
	if _, err := svc.SetActive(categories.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}

func TestSettingItemsOrderingAndUniqueness(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	location, err := svc.Create(CreateSettingInput{Name: "Location", Type: model.SettingTypeList})
	if err != nil {
		t.Fatalf("create list setting: %v", err)
	}

	if _, err := svc.AddItem(location.ID, "Kitchen", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(location.ID, "Attic", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(location.ID, "Balcony", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := svc.AddItem(location.ID, "Kitchen", 5); !errors.Is(err, ErrDuplicateValue) {
		t.Fatalf("expected ErrDuplicateValue, got %v", err)
	}

	items, err := svc.Items(location.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	want := []string{"Attic", "Balcony", "Kitchen"}
	for i, value := range want {
		if items[i].Value != value {
			t.Fatalf("position %d: expected %s, got %s", i, value, items[i].Value)
		}
	}

	// The same value may exist under a different setting.
	other, err := svc.Create(CreateSettingInput{Name: "Other", Type: model.SettingTypeList})
	if err != nil {
		t.Fatalf("create list setting: %v", err)
	}
	if _, err := svc.AddItem(other.ID, "Kitchen", 0); err != nil {
		t.Fatalf("same value under another setting: %v", err)
	}
}

func TestSettingItemsOnlyForListSettings(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	rounds, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeNumber})
	if err != nil {
		t.Fatalf("create setting: %v", err)
	}

	if _, err := svc.AddItem(rounds.ID, "A", 0); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if _, err := svc.AddItem(42, "A", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRenameItemPreservesIdentityAndOrder(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	categories, err := svc.Create(CreateSettingInput{Name: "Categories", Type: model.SettingTypeList})
	if err != nil {
		t.Fatalf("create list setting: %v", err)
	}

	item, err := svc.AddItem(categories.ID, "A", 3)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(categories.ID, "B", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	renamed, err := svc.RenameItem(item.ID, "Art")
	if err != nil {
		t.Fatalf("rename item: %v", err)
	}
	if renamed.ID != item.ID {
		t.Fatalf("rename must keep the id, got %d want %d", renamed.ID, item.ID)
	}

	items, err := svc.Items(categories.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("rename must never remove items, got %d", len(items))
	}
	// Order index is untouched, so "Art" (index 3) still sorts after "B" (index 1).
	if items[0].Value != "B" || items[1].Value != "Art" {
		t.Fatalf("unexpected order after rename: %+v", items)
	}
	if items[1].OrderIndex != 3 {
		t.Fatalf("rename must keep the order index, got %d", items[1].OrderIndex)
	}

	if _, err := svc.RenameItem(item.ID, "B"); !errors.Is(err, ErrDuplicateValue) {
		t.Fatalf("expected ErrDuplicateValue, got %v", err)
	}
}

func TestSettingUpdate(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	rounds, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeNumber})
	if err != nil {
		t.Fatalf("create setting: %v", err)
	}
	if _, err := svc.Create(CreateSettingInput{Name: "Duration", Type: model.SettingTypeTime}); err != nil {
		t.Fatalf("create setting: %v", err)
	}

	name := "Duration"
	if _, err := svc.Update(rounds.ID, UpdateSettingInput{Name: &name}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	newName := "Turns"
	note := "turns per match"
	position := 5
	if _, err := svc.Update(rounds.ID, UpdateSettingInput{Name: &newName, Note: &note, Position: &position}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(rounds.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Turns" || got.Note != "turns per match" || got.Position != 5 {
		t.Fatalf("update not applied: %+v", got)
	}

	// Keeping the own name is not a collision.
	if _, err := svc.Update(rounds.ID, UpdateSettingInput{Name: &newName}); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestSettingTypeChangeToListDeactivates(t *testing.T) {
	svc := NewSettingService(newTestDB(t))

	rounds, err := svc.Create(CreateSettingInput{Name: "Rounds", Type: model.SettingTypeNumber})
	if err != nil {
		t.Fatalf("create setting: %v", err)
	}
	if !rounds.IsActive {
		t.Fatal("non-list settings start active")
	}

	listType := model.SettingTypeList
	if _, err := svc.Update(rounds.ID, UpdateSettingInput{Type: &listType}); err != nil {
		t.Fatalf("change type: %v", err)
	}

	got, err := svc.Get(rounds.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Type != model.SettingTypeList {
		t.Fatalf("type not changed: %+v", got)
	}
	if got.IsActive {
		t.Fatal("a list setting with zero items may not stay active")
	}

	// Reactivation follows the usual gate: an item first.
	if _, err := svc.SetActive(rounds.ID, true); !errors.Is(err, ErrActivationBlocked) {
		t.Fatalf("expected ErrActivationBlocked, got %v", err)
	}
	if _, err := svc.AddItem(rounds.ID, "3", 0); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.SetActive(rounds.ID, true); err != nil {
		t.Fatalf("activate: %v", err)
	}
}
