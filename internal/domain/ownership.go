package domain

// Ownership records who created a record and which scope it belongs to.
type Ownership struct {
	CreatedBy string
	Company   string
}
