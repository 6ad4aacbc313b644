package attribute

// definitionRow is one row of the attribute definition table.
type definitionRow struct {
	id           int64
	name         string
	typ          string
	defaultValue string
}
