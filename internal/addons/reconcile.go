package addons

// ReconcileResult is the outcome of merging a server collection into a local one
type ReconcileResult struct {
	Merged   Collection
	Added    int // Server entries with no local counterpart
	Orphaned int // Local entries absent server-side, now disabled
}

// Reconcile merges a freshly fetched server collection into the local one.
//
// Local order wins for entries present on both sides. Matched entries take the
// server's manifest, transport name and flags while keeping the locally owned
// fields (enabled, auto-update exclusion, manifest name). Local entries missing
// from the server are kept but disabled. Unseen server entries are appended in
// server order. Transient state is cleared on every merged entry.
func Reconcile(local, server Collection) ReconcileResult {
	lookup := make(map[string]int, len(server))
	for i := range server {
		if _, exists := lookup[server[i].TransportURL]; !exists {
			lookup[server[i].TransportURL] = i
		}
	}
	consumed := make([]bool, len(server))

	result := ReconcileResult{Merged: make(Collection, 0, len(local)+len(server))}

	for i := range local {
		idx, ok := lookup[local[i].TransportURL]
		if !ok {
			orphan := local[i].Clone()
			orphan.IsEnabled = false
			resetTransient(&orphan)
			result.Merged = append(result.Merged, orphan)
			result.Orphaned++
			continue
		}

		// Duplicated local URLs: only the first consumes the server entry
		delete(lookup, local[i].TransportURL)
		consumed[idx] = true

		merged := server[idx].Clone()
		merged.IsEnabled = local[i].IsEnabled
		merged.DisableAutoUpdate = local[i].DisableAutoUpdate
		if local[i].Manifest.Name != "" {
			merged.Manifest.Name = local[i].Manifest.Name
		}
		resetTransient(&merged)
		result.Merged = append(result.Merged, merged)
	}

	for i := range server {
		if consumed[i] {
			continue
		}
		added := server[i].Clone()
		resetTransient(&added)
		result.Merged = append(result.Merged, added)
		result.Added++
	}

	return result
}

func resetTransient(e *Entry) {
	e.Selected = false
	e.Status = StatusUnchecked
	e.Err = ""
}
