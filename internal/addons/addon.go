package addons

// Status is the transient health state of an entry
type Status int

const (
	StatusUnchecked Status = iota
	StatusChecking
	StatusOK
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unchecked"
	}
}

// Flags are server-owned markers attached to an installed addon
type Flags struct {
	Official  bool `json:"official,omitempty"`
	Protected bool `json:"protected,omitempty"`
}

// Entry represents one installed addon, identified by its transport URL
type Entry struct {
	TransportURL  string   `json:"transportUrl"`            // Identity key (exact match)
	TransportName string   `json:"transportName,omitempty"` // Server-provided transport label
	Manifest      Manifest `json:"manifest"`                // Server-owned, except Name
	Flags         Flags    `json:"flags"`

	// Local-only fields, never taken from the server
	IsEnabled         bool `json:"isEnabled"`
	DisableAutoUpdate bool `json:"disableAutoUpdate,omitempty"`

	// Runtime state (not persisted)
	Status   Status `json:"-"`
	Selected bool   `json:"-"`
	Err      string `json:"-"` // Last health check failure
}

// Name returns the display name of the entry
func (e *Entry) Name() string {
	if e.Manifest.Name != "" {
		return e.Manifest.Name
	}
	if e.Manifest.ID != "" {
		return e.Manifest.ID
	}
	return e.TransportURL
}

// Counts summarizes a collection for status lines
type Counts struct {
	Total    int
	Enabled  int
	Disabled int
	Errored  int
	Selected int
}

// Collection is an ordered list of entries
type Collection []Entry

// Index returns the position of the entry with the exact transport URL, or -1
func (c Collection) Index(transportURL string) int {
	for i := range c {
		if c[i].TransportURL == transportURL {
			return i
		}
	}
	return -1
}

// HasBaseURL reports whether an entry shares the base URL (before '?') of u
func (c Collection) HasBaseURL(u string) bool {
	base := BaseURL(u)
	for i := range c {
		if BaseURL(c[i].TransportURL) == base {
			return true
		}
	}
	return false
}

// Enabled returns the enabled entries in order
func (c Collection) Enabled() Collection {
	out := make(Collection, 0, len(c))
	for i := range c {
		if c[i].IsEnabled {
			out = append(out, c[i])
		}
	}
	return out
}

// Counts tallies enabled, disabled, errored and selected entries
func (c Collection) Counts() Counts {
	counts := Counts{Total: len(c)}
	for i := range c {
		if c[i].IsEnabled {
			counts.Enabled++
		} else {
			counts.Disabled++
		}
		if c[i].Status == StatusError {
			counts.Errored++
		}
		if c[i].Selected {
			counts.Selected++
		}
	}
	return counts
}
