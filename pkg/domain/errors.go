package domain

// Error enumerates the failure kinds reported by Repository.Modify. Errors are
// plain values; compare them with errors.Is.
type Error int

const (
	// ErrDataStoreFailed signals a transient or permanent backend problem.
	ErrDataStoreFailed Error = iota + 1
	// ErrMissingName is returned when a thing without a name is created.
	ErrMissingName
	// ErrNameAlreadyExists is returned when a name collides case-insensitively
	// with a thing in either tier.
	ErrNameAlreadyExists
	// ErrNotFound signals a lookup miss.
	ErrNotFound
)

func (e Error) Error() string {
	switch e {
	case ErrDataStoreFailed:
		return "data store failed"
	case ErrMissingName:
		return "missing name"
	case ErrNameAlreadyExists:
		return "name already exists"
	case ErrNotFound:
		return "not found"
	default:
		return "unknown repository error"
	}
}
