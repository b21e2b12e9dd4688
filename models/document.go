package models

// Document renders an entity as a plain map for JSON output and file export.
// Scalar fields keep their native types, nested references become nested
// documents. Recipes additionally carry their steps and component lines,
// which are not part of the flat descriptor table.
func Document(entity Reference) map[string]interface{} {
	if entity == nil {
		return nil
	}
	doc := make(map[string]interface{}, len(entity.FieldNames())+2)
	for _, field := range entity.FieldNames() {
		value, ok := entity.Field(field)
		if !ok {
			doc[field] = nil
			continue
		}
		if nested, isRef := value.(Reference); isRef {
			doc[field] = Document(nested)
			continue
		}
		doc[field] = value
	}

	if recipe, ok := entity.(*Recipe); ok {
		doc["steps"] = recipe.Steps()
		lines := make([]map[string]interface{}, 0, len(recipe.Components()))
		for _, c := range recipe.Components() {
			lines = append(lines, map[string]interface{}{
				"nomenclature_id": c.Item().Code(),
				"range_id":        c.Unit().Code(),
				"value":           c.Value(),
			})
		}
		doc["composition"] = lines
	}
	return doc
}
