package pstore

// AreaKind tags the two storage areas a page-like context exposes.
type AreaKind string

const (
	// KindPersistent survives the owning process; the local-storage analog.
	KindPersistent AreaKind = "persistent"
	// KindSession lives for the owning process only.
	KindSession AreaKind = "session"
)

// Area is the storage-area contract: a synchronous key/text map. GetItem
// reports (text, present); both calls may fail on access or quota
// problems, which bindings treat as degraded conditions, not fatal ones.
// Implementations must be safe for concurrent use.
type Area interface {
	Kind() AreaKind
	GetItem(key string) (string, bool, error)
	SetItem(key, text string) error
}
