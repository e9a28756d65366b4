package staging

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"fieldforge-backend/internal/metadata"
)

// FieldClient persists staged field edits. The batch apply endpoint backs
// it with the store; tests back it with a fake.
type FieldClient interface {
	CreateField(ctx context.Context, f metadata.Field) (metadata.Field, error)
	UpdateField(ctx context.Context, id string, patch FieldPatch) (metadata.Field, error)
	DeleteField(ctx context.Context, id string) error
}

// Session buffers field additions, edits, deletions and reorderings for one
// fieldset editing session, then flushes everything in one batched save.
// The visible field list always reflects staged-but-unsaved state.
//
// A Session belongs to one editing session and is not safe for concurrent
// use; callers must also serialize SaveAll calls.
type Session struct {
	fieldsetID string
	client     FieldClient

	fields           []metadata.Field
	pendingAdditions []string // temp ids, in addition order
	pendingChanges   map[string]*FieldPatch
	pendingDeletions []string
	unsaved          bool
	lastErr          error
}

// NewSession starts an editing session over the given base server state.
func NewSession(fieldsetID string, client FieldClient, base []metadata.Field) *Session {
	fields := make([]metadata.Field, len(base))
	copy(fields, base)
	return &Session{
		fieldsetID:     fieldsetID,
		client:         client,
		fields:         fields,
		pendingChanges: make(map[string]*FieldPatch),
	}
}

// Fields returns the current visible field list.
func (s *Session) Fields() []metadata.Field {
	out := make([]metadata.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// UnsavedChanges reports whether anything is staged.
func (s *Session) UnsavedChanges() bool { return s.unsaved }

// Err returns the error from the last failed SaveAll, if any.
func (s *Session) Err() error { return s.lastErr }

// PendingDeletions returns the ids queued for backend deletion.
func (s *Session) PendingDeletions() []string {
	out := make([]string, len(s.pendingDeletions))
	copy(out, s.pendingDeletions)
	return out
}

// MarkFieldsetChanged flags a fieldset-level edit (title, key, location)
// so the unsaved indicator covers it too.
func (s *Session) MarkFieldsetChanged() { s.unsaved = true }

// AddFieldLocal stages a new field under a synthesized temp id and makes
// it immediately visible. No network call is made until SaveAll.
func (s *Session) AddFieldLocal(f metadata.Field) metadata.Field {
	f.ID = newTempID()
	f.FieldsetID = s.fieldsetID
	if f.Settings == nil {
		f.Settings = metadata.Settings{}
	}
	s.fields = append(s.fields, f)
	s.pendingAdditions = append(s.pendingAdditions, f.ID)
	s.unsaved = true
	return f
}

// UpdateFieldLocal merges a patch into the staged changes for a field and
// into the visible list for immediate feedback. Settings are merged
// key-wise across successive patches.
func (s *Session) UpdateFieldLocal(id string, patch FieldPatch) {
	existing := s.pendingChanges[id]
	if existing == nil {
		existing = &FieldPatch{}
		s.pendingChanges[id] = existing
	}
	existing.merge(patch)

	if idx := s.indexOf(id); idx >= 0 {
		patch.ApplyTo(&s.fields[idx])
	}
	s.unsaved = true
}

// DeleteFieldLocal removes a field from the visible list. A field that was
// only ever staged (temp id) is purged entirely and no backend delete is
// queued; a persisted field is queued into pendingDeletions.
func (s *Session) DeleteFieldLocal(id string) {
	if idx := s.indexOf(id); idx >= 0 {
		s.fields = append(s.fields[:idx], s.fields[idx+1:]...)
	}

	if metadata.IsTempID(id) {
		for i, tempID := range s.pendingAdditions {
			if tempID == id {
				s.pendingAdditions = append(s.pendingAdditions[:i], s.pendingAdditions[i+1:]...)
				break
			}
		}
		delete(s.pendingChanges, id)
	} else {
		s.pendingDeletions = append(s.pendingDeletions, id)
	}
	s.unsaved = true
}

// ReorderFieldsLocal replaces the visible list order wholesale. Menu order
// values are not touched here; they are derived from list position at
// flush time. Ids not present are ignored; fields not mentioned keep their
// relative order at the end.
func (s *Session) ReorderFieldsLocal(ids []string) {
	reordered := make([]metadata.Field, 0, len(s.fields))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if idx := s.indexOf(id); idx >= 0 && !seen[id] {
			reordered = append(reordered, s.fields[idx])
			seen[id] = true
		}
	}
	for _, f := range s.fields {
		if !seen[f.ID] {
			reordered = append(reordered, f)
		}
	}
	s.fields = reordered
	s.unsaved = true
}

// SaveAll flushes all staged edits in three families — deletes, creates,
// updates — with the calls inside each family running concurrently. On full
// success all staging state is cleared and the visible list is kept as-is
// (no refetch). On any failure the staging collections are left intact so
// the whole batch can be resubmitted.
func (s *Session) SaveAll(ctx context.Context) error {
	// 1. deletes — temp ids never reach here, nothing was persisted for them
	var deletes errgroup.Group
	for _, id := range s.pendingDeletions {
		deletes.Go(func() error {
			if err := s.client.DeleteField(ctx, id); err != nil {
				return fmt.Errorf("delete field %s: %w", id, err)
			}
			return nil
		})
	}
	if err := deletes.Wait(); err != nil {
		s.lastErr = err
		return err
	}

	// 2. creates — the visible entry already carries any staged patches;
	// menu order comes from the field's current list position
	created := make([]metadata.Field, len(s.pendingAdditions))
	var creates errgroup.Group
	for i, tempID := range s.pendingAdditions {
		idx := s.indexOf(tempID)
		if idx < 0 {
			continue
		}
		f := s.fields[idx]
		f.MenuOrder = idx
		creates.Go(func() error {
			persisted, err := s.client.CreateField(ctx, f)
			if err != nil {
				return fmt.Errorf("create field %s: %w", f.Label, err)
			}
			created[i] = persisted
			return nil
		})
	}
	createErr := creates.Wait()

	// id swaps for the creates that did succeed happen regardless, so a
	// later failure never leaves the visible list pointing at dead temp ids
	for i, tempID := range s.pendingAdditions {
		if created[i].ID == "" {
			continue
		}
		if idx := s.indexOf(tempID); idx >= 0 {
			s.fields[idx] = created[i]
		}
	}
	if createErr != nil {
		s.lastErr = createErr
		return createErr
	}

	// 3. updates — temp-id patches were already folded into their create
	var updates errgroup.Group
	for id, patch := range s.pendingChanges {
		if metadata.IsTempID(id) {
			continue
		}
		idx := s.indexOf(id)
		if idx < 0 {
			continue
		}
		p := *patch
		order := idx
		p.MenuOrder = &order
		if p.Settings != nil {
			// send the full merged settings, not just the touched keys
			p.Settings = s.fields[idx].Settings.Clone()
		}
		updates.Go(func() error {
			if _, err := s.client.UpdateField(ctx, id, p); err != nil {
				return fmt.Errorf("update field %s: %w", id, err)
			}
			return nil
		})
	}
	// persisted fields whose list position drifted from their stored menu
	// order get a menu-order-only write even without a staged patch, so a
	// pure reorder still persists
	for idx, f := range s.fields {
		if metadata.IsTempID(f.ID) {
			continue
		}
		if _, staged := s.pendingChanges[f.ID]; staged {
			continue
		}
		if f.MenuOrder == idx {
			continue
		}
		id := f.ID
		order := idx
		updates.Go(func() error {
			if _, err := s.client.UpdateField(ctx, id, FieldPatch{MenuOrder: &order}); err != nil {
				return fmt.Errorf("update field %s: %w", id, err)
			}
			return nil
		})
	}
	if err := updates.Wait(); err != nil {
		s.lastErr = err
		return err
	}

	for i := range s.fields {
		s.fields[i].MenuOrder = i
	}
	s.pendingAdditions = nil
	s.pendingChanges = make(map[string]*FieldPatch)
	s.pendingDeletions = nil
	s.unsaved = false
	s.lastErr = nil
	return nil
}

func (s *Session) indexOf(id string) int {
	for i := range s.fields {
		if s.fields[i].ID == id {
			return i
		}
	}
	return -1
}

func newTempID() string {
	suffix, err := gonanoid.New(8)
	if err != nil {
		suffix = "00000000"
	}
	return fmt.Sprintf("temp-%d-%s", time.Now().UnixMilli(), suffix)
}
