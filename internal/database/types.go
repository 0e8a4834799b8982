package database

// Identity is an enrolled person as stored in the students table.
type Identity struct {
	ID          int64
	FullName    string
	CodeStudent string
	Phone       string
	Address     string
	Email       string
	Status      string
	VectorFace  []float32 // nil when no face has been enrolled
	CreatedAt   int64     // unix seconds
}

// HasVector reports whether a face vector is enrolled.
func (i *Identity) HasVector() bool {
	return len(i.VectorFace) > 0
}

// StatusActive is the status given to newly created identities.
const StatusActive = "active"
