package repositories

// SearchFilters defines the available filters for catalog searches. All
// string matching is case-insensitive; Name and TypeLine are substring
// filters, SetCode is an exact match.
type SearchFilters struct {
	// Name matches against the canonical name and the alternate flavor name.
	Name string

	// SetCode narrows to a single set.
	SetCode string

	// TypeLine matches against the full type line.
	TypeLine string
}

// Empty reports whether no filter is set. The search contract requires at
// least one; an empty filter set never means "match everything".
func (f SearchFilters) Empty() bool {
	return f.Name == "" && f.SetCode == "" && f.TypeLine == ""
}
