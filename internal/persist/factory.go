package persist

import "fmt"

// NewStore constructs a Store of the given kind ("memory" or "sqlite").
// An empty kind defaults to "memory".
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes store if it implements io.Closer-like Close,
// a no-op otherwise (MemoryStore has nothing to release).
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
