package datavalues

// DataField describes one column of a table schema.
type DataField struct {
	Name     string   `json:"name"`
	Type     DataType `json:"type"`
	Nullable bool     `json:"nullable,omitempty"`
}

// DataSchema is the ordered column list of a table. Column positions in the
// schema are what block statistics are keyed by, so the order is significant.
type DataSchema struct {
	Fields []DataField `json:"fields"`
}

func NewSchema(fields ...DataField) DataSchema {
	return DataSchema{Fields: fields}
}

// FieldIndex returns the position of the named column, or false if the schema
// does not contain it.
func (s DataSchema) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (s DataSchema) NumFields() int {
	return len(s.Fields)
}
