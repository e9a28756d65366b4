package staging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"fieldforge-backend/internal/metadata"
)

// fakeClient records calls and assigns sequential ids to created fields.
type fakeClient struct {
	mu      sync.Mutex
	nextID  int
	creates []metadata.Field
	updates map[string]FieldPatch
	deletes []string

	failCreate bool
	failUpdate bool
	failDelete bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{nextID: 100, updates: make(map[string]FieldPatch)}
}

func (c *fakeClient) CreateField(ctx context.Context, f metadata.Field) (metadata.Field, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate {
		return metadata.Field{}, errors.New("create failed")
	}
	f.ID = strconv.Itoa(c.nextID)
	c.nextID++
	c.creates = append(c.creates, f)
	return f, nil
}

func (c *fakeClient) UpdateField(ctx context.Context, id string, patch FieldPatch) (metadata.Field, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failUpdate {
		return metadata.Field{}, errors.New("update failed")
	}
	c.updates[id] = patch
	return metadata.Field{ID: id}, nil
}

func (c *fakeClient) DeleteField(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDelete {
		return errors.New("delete failed")
	}
	c.deletes = append(c.deletes, id)
	return nil
}

func TestAddFieldLocal_StagesWithoutNetwork(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, nil)

	added := s.AddFieldLocal(metadata.Field{Label: "Title", Name: "title", Type: "text"})
	if !metadata.IsTempID(added.ID) {
		t.Fatalf("expected a temp id, got %s", added.ID)
	}
	if added.FieldsetID != "1" {
		t.Fatalf("expected fieldset id set, got %s", added.FieldsetID)
	}
	if !s.UnsavedChanges() {
		t.Fatal("expected unsaved changes")
	}
	if len(s.Fields()) != 1 {
		t.Fatal("expected field visible immediately")
	}
	if len(client.creates) != 0 {
		t.Fatal("no network call before SaveAll")
	}
}

func TestTempIDs_AreUnique(t *testing.T) {
	s := NewSession("1", newFakeClient(), nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		f := s.AddFieldLocal(metadata.Field{Label: fmt.Sprintf("F%d", i), Name: "f", Type: "text"})
		if seen[f.ID] {
			t.Fatalf("duplicate temp id %s", f.ID)
		}
		seen[f.ID] = true
	}
}

func TestUpdateFieldLocal_MergesSettingsKeywise(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, []metadata.Field{
		{ID: "10", Label: "Title", Name: "title", Type: "text", Settings: metadata.Settings{}},
	})

	s.UpdateFieldLocal("10", FieldPatch{Settings: metadata.Settings{"a": 1}})
	s.UpdateFieldLocal("10", FieldPatch{Settings: metadata.Settings{"b": 2}})

	fields := s.Fields()
	if fields[0].Settings["a"] != 1 || fields[0].Settings["b"] != 2 {
		t.Fatalf("expected both settings staged, got %v", fields[0].Settings)
	}

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	patch := client.updates["10"]
	if patch.Settings["a"] != 1 || patch.Settings["b"] != 2 {
		t.Fatalf("expected merged settings sent, got %v", patch.Settings)
	}
}

func TestDeleteFieldLocal_TempFieldQueuesNothing(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, nil)

	added := s.AddFieldLocal(metadata.Field{Label: "Temp", Name: "temp", Type: "text"})
	s.UpdateFieldLocal(added.ID, FieldPatch{Settings: metadata.Settings{"x": 1}})
	s.DeleteFieldLocal(added.ID)

	if len(s.Fields()) != 0 {
		t.Fatal("expected field gone from visible list")
	}
	if len(s.PendingDeletions()) != 0 {
		t.Fatal("a never-persisted field must not queue a backend delete")
	}

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if len(client.creates) != 0 || len(client.deletes) != 0 || len(client.updates) != 0 {
		t.Fatal("expected no backend calls at all")
	}
}

func TestDeleteFieldLocal_PersistedFieldQueuesDeletion(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, []metadata.Field{
		{ID: "10", Label: "Old", Name: "old", Type: "text"},
	})

	s.DeleteFieldLocal("10")
	if got := s.PendingDeletions(); len(got) != 1 || got[0] != "10" {
		t.Fatalf("expected deletion queued, got %v", got)
	}

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if len(client.deletes) != 1 || client.deletes[0] != "10" {
		t.Fatalf("expected backend delete of 10, got %v", client.deletes)
	}
}

func TestReorderFieldsLocal_UnmentionedKeepRelativeOrderAtEnd(t *testing.T) {
	s := NewSession("1", newFakeClient(), []metadata.Field{
		{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}, {ID: "4", Name: "d"},
	})

	s.ReorderFieldsLocal([]string{"3", "1"})
	fields := s.Fields()
	want := []string{"3", "1", "2", "4"}
	for i, id := range want {
		if fields[i].ID != id {
			t.Fatalf("expected order %v, got %s at %d", want, fields[i].ID, i)
		}
	}
}

func TestSaveAll_EndToEnd(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, nil)

	added := s.AddFieldLocal(metadata.Field{Label: "Title", Name: "title", Type: "text"})
	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	if len(client.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(client.creates))
	}
	if client.creates[0].MenuOrder != 0 {
		t.Fatalf("expected menu order from list position, got %d", client.creates[0].MenuOrder)
	}

	fields := s.Fields()
	if fields[0].ID == added.ID {
		t.Fatal("expected temp id swapped for the persisted id")
	}
	if metadata.IsTempID(fields[0].ID) {
		t.Fatalf("still a temp id: %s", fields[0].ID)
	}
	if s.UnsavedChanges() {
		t.Fatal("expected clean state after save")
	}
	if s.Err() != nil {
		t.Fatalf("expected no residual error, got %v", s.Err())
	}
}

func TestSaveAll_TempPatchesFoldIntoCreate(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, nil)

	added := s.AddFieldLocal(metadata.Field{Label: "Title", Name: "title", Type: "text"})
	s.UpdateFieldLocal(added.ID, FieldPatch{Settings: metadata.Settings{"placeholder": "hi"}})

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if len(client.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(client.creates))
	}
	if client.creates[0].Settings["placeholder"] != "hi" {
		t.Fatalf("expected staged patch inside the create, got %v", client.creates[0].Settings)
	}
	if len(client.updates) != 0 {
		t.Fatal("a temp-id patch must not also produce an update call")
	}
}

func TestSaveAll_UpdateSendsListPositionAsMenuOrder(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, []metadata.Field{
		{ID: "10", Name: "a", MenuOrder: 0},
		{ID: "11", Name: "b", MenuOrder: 1},
	})

	s.ReorderFieldsLocal([]string{"11", "10"})
	label := "B!"
	s.UpdateFieldLocal("11", FieldPatch{Label: &label})

	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	patch := client.updates["11"]
	if patch.MenuOrder == nil || *patch.MenuOrder != 0 {
		t.Fatalf("expected menu order 0 from list position, got %v", patch.MenuOrder)
	}
}

func TestSaveAll_PureReorderPersistsMenuOrder(t *testing.T) {
	client := newFakeClient()
	s := NewSession("1", client, []metadata.Field{
		{ID: "10", Name: "a", MenuOrder: 0},
		{ID: "11", Name: "b", MenuOrder: 1},
	})

	s.ReorderFieldsLocal([]string{"11", "10"})
	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// Both fields moved, so both get a menu-order-only write.
	first, ok := client.updates["11"]
	if !ok || first.MenuOrder == nil || *first.MenuOrder != 0 {
		t.Fatalf("expected menu order 0 written for 11, got %+v", first)
	}
	second, ok := client.updates["10"]
	if !ok || second.MenuOrder == nil || *second.MenuOrder != 1 {
		t.Fatalf("expected menu order 1 written for 10, got %+v", second)
	}
	if first.Label != nil || first.Settings != nil {
		t.Fatalf("expected a menu-order-only patch, got %+v", first)
	}

	fields := s.Fields()
	if fields[0].MenuOrder != 0 || fields[1].MenuOrder != 1 {
		t.Fatalf("expected visible menu order renumbered, got %d and %d", fields[0].MenuOrder, fields[1].MenuOrder)
	}
	if s.UnsavedChanges() {
		t.Fatal("expected clean state after save")
	}
}

func TestSaveAll_FailureLeavesStagingIntact(t *testing.T) {
	client := newFakeClient()
	client.failCreate = true
	s := NewSession("1", client, []metadata.Field{
		{ID: "10", Name: "old", Type: "text"},
	})

	s.DeleteFieldLocal("10")
	s.AddFieldLocal(metadata.Field{Label: "New", Name: "new_field", Type: "text"})

	err := s.SaveAll(context.Background())
	if err == nil {
		t.Fatal("expected save failure")
	}
	if s.Err() == nil {
		t.Fatal("expected error retained")
	}
	if !s.UnsavedChanges() {
		t.Fatal("staging must survive a failed save")
	}

	// The delete family ran first and succeeded; retrying after the cause
	// is fixed must still create the staged addition.
	client.failCreate = false
	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(client.creates) != 1 {
		t.Fatalf("expected the addition created on retry, got %d", len(client.creates))
	}
	if s.UnsavedChanges() {
		t.Fatal("expected clean state after successful retry")
	}
}

func TestSaveAll_MarkFieldsetChangedClears(t *testing.T) {
	s := NewSession("1", newFakeClient(), nil)
	s.MarkFieldsetChanged()
	if !s.UnsavedChanges() {
		t.Fatal("expected unsaved after fieldset edit")
	}
	if err := s.SaveAll(context.Background()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if s.UnsavedChanges() {
		t.Fatal("expected clean state")
	}
}
