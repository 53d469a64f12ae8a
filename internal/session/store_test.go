package session_test

import (
	"testing"

	"github.com/floatchat/floatchat/internal/models"
	"github.com/floatchat/floatchat/internal/session"
)

func TestStoreAppendOrder(t *testing.T) {
	store := session.NewStore()

	contents := []string{"first", "second", "third"}
	for i, c := range contents {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		store.Append(models.Turn{Role: role, Content: c})
	}

	if store.Len() != len(contents) {
		t.Fatalf("Len() = %d, want %d", store.Len(), len(contents))
	}

	turns := store.Turns()
	for i, c := range contents {
		if turns[i].Content != c {
			t.Errorf("turns[%d].Content = %q, want %q", i, turns[i].Content, c)
		}
	}
}

func TestStoreTurnsReturnsCopy(t *testing.T) {
	store := session.NewStore()
	store.Append(models.Turn{Role: models.RoleUser, Content: "hello"})

	turns := store.Turns()
	turns[0].Content = "mutated"

	if got := store.Turns()[0].Content; got != "hello" {
		t.Errorf("store content = %q, want %q", got, "hello")
	}
}

func TestStoreClear(t *testing.T) {
	store := session.NewStore()
	store.Append(models.Turn{Role: models.RoleUser, Content: "hello"})
	store.Append(models.Turn{Role: models.RoleAssistant, Content: "hi"})

	store.Clear()

	if store.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", store.Len())
	}
	if len(store.Turns()) != 0 {
		t.Errorf("Turns() after Clear() not empty")
	}
}
