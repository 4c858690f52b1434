package services

// Store holds key/value state shared between services (latest device events,
// alarm automata state, config documents).
type Store interface {
	Set(key string, value string) error
	SetWithTTL(key string, value string, ttl uint64) error
	Get(key string) (string, error)
	GetRecursive(prefix string) ([]Node, error)
}

type Node struct {
	Key   string
	Value string
}
