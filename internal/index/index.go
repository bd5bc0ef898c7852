package index

// ObjectIndex defines the interface for vault object index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ObjectIndex interface {
	UpsertObject(o ObjectRow) error
	DeleteObject(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	URLExists(project, url string) (bool, error)
	FindObject(project, key string) (*ObjectRow, error)
	ListObjects(project string) ([]ObjectRow, error)
	Close() error
}

// Verify *DB satisfies ObjectIndex at compile time.
var _ ObjectIndex = (*DB)(nil)
