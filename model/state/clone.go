package state

// Cloner is implemented by states holding reference fields (maps, slices,
// pointers) that must not be shared between concurrently running steps.
type Cloner[S any] interface {
	Clone() S
}

// Snapshot returns an isolated copy of s.
func Snapshot[S any](s S) S {
	if c, ok := any(s).(Cloner[S]); ok {
		return c.Clone()
	}
	return s
}

// CloneMap returns a shallow copy of m.
func CloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	ret := make(map[K]V, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}
