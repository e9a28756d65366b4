package engine

import (
	"context"
	"fmt"

	"fieldforge-backend/internal/metadata"
	"fieldforge-backend/internal/schema"
	"fieldforge-backend/internal/store"
)

// validateFieldsetKey checks the key's shape and its uniqueness across all
// fieldsets (excluding the fieldset being edited). Runs before any write.
func validateFieldsetKey(ctx context.Context, q store.Querier, d store.Dialect, key string, excludeID int64) *ErrorDetail {
	if key == "" {
		return &ErrorDetail{Field: "field_key", Rule: "required", Message: "Field key is required"}
	}
	if !metadata.FieldKeyPattern.MatchString(key) {
		return &ErrorDetail{Field: "field_key", Rule: "pattern", Message: "Field key may only contain lowercase letters, digits and underscores"}
	}

	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT COUNT(*) AS count FROM _fieldsets WHERE field_key = %s", pb.Add(key))
	if excludeID > 0 {
		sqlStr += fmt.Sprintf(" AND id != %s", pb.Add(excludeID))
	}
	row, err := store.QueryRow(ctx, q, sqlStr, pb.Params()...)
	if err != nil {
		return &ErrorDetail{Field: "field_key", Rule: "unique", Message: "Could not verify key uniqueness"}
	}
	if count, ok := row["count"].(int64); ok && count > 0 {
		return &ErrorDetail{Field: "field_key", Rule: "unique", Message: fmt.Sprintf("Field key %q is already in use", key)}
	}
	return nil
}

// validateFieldName checks a field name's shape and its uniqueness within
// its fieldset/parent scope.
func validateFieldName(ctx context.Context, q store.Querier, d store.Dialect, fieldsetID int64, parentID string, name string, excludeID string) *ErrorDetail {
	if name == "" {
		return &ErrorDetail{Field: "name", Rule: "required", Message: "Field name is required"}
	}
	if !metadata.FieldKeyPattern.MatchString(name) {
		return &ErrorDetail{Field: "name", Rule: "pattern", Message: "Field name may only contain lowercase letters, digits and underscores"}
	}

	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT COUNT(*) AS count FROM _fields WHERE fieldset_id = %s AND name = %s", pb.Add(fieldsetID), pb.Add(name))
	if parentID == "" {
		sqlStr += " AND parent_id IS NULL"
	} else {
		sqlStr += fmt.Sprintf(" AND parent_id = %s", pb.Add(idParam(parentID)))
	}
	if excludeID != "" && !metadata.IsTempID(excludeID) {
		sqlStr += fmt.Sprintf(" AND id != %s", pb.Add(idParam(excludeID)))
	}
	row, err := store.QueryRow(ctx, q, sqlStr, pb.Params()...)
	if err != nil {
		return &ErrorDetail{Field: "name", Rule: "unique", Message: "Could not verify name uniqueness"}
	}
	if count, ok := row["count"].(int64); ok && count > 0 {
		return &ErrorDetail{Field: "name", Rule: "unique", Message: fmt.Sprintf("Field name %q is already in use in this scope", name)}
	}
	return nil
}

// maxNestingDepth bounds ancestor-chain walks so a pre-existing loop in
// stored data cannot spin the validator.
const maxNestingDepth = 64

// validateParent checks that a non-root parent exists in the same fieldset,
// is a container type, and is not the field itself or one of its own
// descendants (excludeID is the field being created or moved).
func validateParent(ctx context.Context, q store.Querier, d store.Dialect, types *schema.Registry, fieldsetID int64, parentID string, excludeID string) *ErrorDetail {
	if parentID == "" {
		return nil
	}
	pb := d.NewParamBuilder()
	row, err := store.QueryRow(ctx, q,
		fmt.Sprintf("SELECT type, parent_id FROM _fields WHERE id = %s AND fieldset_id = %s", pb.Add(idParam(parentID)), pb.Add(fieldsetID)),
		pb.Params()...)
	if err != nil {
		return &ErrorDetail{Field: "parent_id", Rule: "exists", Message: fmt.Sprintf("Parent field %s not found in this fieldset", parentID)}
	}
	parentType, _ := row["type"].(string)
	if !types.HasSubFields(parentType) {
		return &ErrorDetail{Field: "parent_id", Rule: "container", Message: fmt.Sprintf("Field type %q cannot have sub fields", parentType)}
	}

	// Walk the candidate's ancestor chain: hitting excludeID means the field
	// is being re-parented under itself or one of its own descendants.
	if excludeID != "" && !metadata.IsTempID(excludeID) {
		cur := parentID
		ancestor := row
		for depth := 0; depth < maxNestingDepth; depth++ {
			if cur == excludeID {
				return &ErrorDetail{Field: "parent_id", Rule: "cycle", Message: "Field cannot be nested under itself or one of its sub fields"}
			}
			cur = metadata.NormalizeParentID(ancestor["parent_id"])
			if cur == "" {
				break
			}
			pb := d.NewParamBuilder()
			next, err := store.QueryRow(ctx, q,
				fmt.Sprintf("SELECT parent_id FROM _fields WHERE id = %s", pb.Add(idParam(cur))),
				pb.Params()...)
			if err != nil {
				break
			}
			ancestor = next
		}
	}
	return nil
}

// sanitizeSettings strips type-specific keys that are not applicable to the
// field's type. Never an error: an unknown type leaves the settings as-is,
// since its applicable set is unknowable. Orphans already stored are the
// renderer's problem, not ours.
func sanitizeSettings(types *schema.Registry, f *metadata.Field) {
	if types.Get(f.Type) == nil {
		return
	}
	applicable := types.ApplicableSettings(f.Type)
	for k := range f.Settings {
		if !applicable[k] {
			delete(f.Settings, k)
		}
	}
}
