package staging

import "fieldforge-backend/internal/metadata"

// FieldPatch is a partial field edit. Nil pointers mean "unchanged";
// Settings carries only the keys being changed and is merged key-wise
// into earlier patches, never replaced wholesale.
type FieldPatch struct {
	Label     *string           `json:"label,omitempty"`
	Name      *string           `json:"name,omitempty"`
	Type      *string           `json:"type,omitempty"`
	ParentID  *string           `json:"parent_id,omitempty"`
	MenuOrder *int              `json:"menu_order,omitempty"`
	Settings  metadata.Settings `json:"settings,omitempty"`
}

// merge overlays other onto p. Scalar fields from other win; settings keys
// are merged individually so two edits to different keys both survive.
func (p *FieldPatch) merge(other FieldPatch) {
	if other.Label != nil {
		p.Label = other.Label
	}
	if other.Name != nil {
		p.Name = other.Name
	}
	if other.Type != nil {
		p.Type = other.Type
	}
	if other.ParentID != nil {
		p.ParentID = other.ParentID
	}
	if other.MenuOrder != nil {
		p.MenuOrder = other.MenuOrder
	}
	if other.Settings != nil {
		if p.Settings == nil {
			p.Settings = metadata.Settings{}
		}
		for k, v := range other.Settings {
			p.Settings[k] = v
		}
	}
}

// ApplyTo writes the patch onto a field for immediate display.
func (p FieldPatch) ApplyTo(f *metadata.Field) {
	if p.Label != nil {
		f.Label = *p.Label
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.ParentID != nil {
		f.ParentID = metadata.NormalizeParentID(*p.ParentID)
	}
	if p.MenuOrder != nil {
		f.MenuOrder = *p.MenuOrder
	}
	if p.Settings != nil {
		if f.Settings == nil {
			f.Settings = metadata.Settings{}
		}
		for k, v := range p.Settings {
			f.Settings[k] = v
		}
	}
}
