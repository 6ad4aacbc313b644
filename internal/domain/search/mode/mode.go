package mode

// Mode is the ordering and pagination strategy of a search.
type Mode string

// Pagination mode constants.
const (
	// SQLSorted pushes ORDER BY and LIMIT/OFFSET into the store query.
	SQLSorted Mode = "sql_sorted"
	// Scored fetches every match in id order, ranks in memory, then slices.
	Scored Mode = "scored"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == SQLSorted || m == Scored
}
