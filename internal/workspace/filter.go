package workspace

import "slices"

// Filter selects database rows by one property condition.
type Filter struct {
	Property string
	Type     PropertyType
	// Equals matches title or rich_text values exactly.
	Equals string
	// Contains matches relations that include this page id.
	Contains string
}

// TitleEquals matches rows whose title property equals value.
func TitleEquals(property, value string) *Filter {
	return &Filter{Property: property, Type: TypeTitle, Equals: value}
}

// RelationContains matches rows whose relation property includes pageID.
func RelationContains(property, pageID string) *Filter {
	return &Filter{Property: property, Type: TypeRelation, Contains: pageID}
}

// Match reports whether props satisfy the filter. A nil filter matches everything.
func (f *Filter) Match(props Properties) bool {
	if f == nil {
		return true
	}
	prop, ok := props[f.Property]
	if !ok {
		return false
	}
	switch f.Type {
	case TypeRelation:
		return slices.Contains(prop.Relation, f.Contains)
	default:
		return prop.Text == f.Equals
	}
}
