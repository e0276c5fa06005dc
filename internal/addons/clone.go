package addons

// Clone returns a deep copy of the collection. Snapshots built with Clone
// share no slices or maps with the source.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i := range c {
		out[i] = c[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the entry
func (e Entry) Clone() Entry {
	e.Manifest = e.Manifest.Clone()
	return e
}

// Clone returns a deep copy of the manifest
func (m Manifest) Clone() Manifest {
	m.Types = cloneStrings(m.Types)
	m.IDPrefixes = cloneStrings(m.IDPrefixes)
	m.Resources = cloneSlice(m.Resources)
	m.Catalogs = cloneSlice(m.Catalogs)
	m.BehaviorHints = cloneMap(m.BehaviorHints)
	m.Extra = cloneMap(m.Extra)
	return m
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneSlice(in []any) []any {
	if in == nil {
		return nil
	}
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the value trees produced by encoding/json and yaml decoding
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	case []string:
		return cloneStrings(t)
	default:
		// strings, numbers, bools and nil are immutable
		return t
	}
}
