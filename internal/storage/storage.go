package storage

// Store is a keyed whole-value store. Values are written and read as single
// records so a reader never observes a partially updated payload.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
