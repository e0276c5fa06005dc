package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bnema/addonctl/internal/addons"
)

// Format is a serialization format for exported collections
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DocumentVersion is written into every export
const DocumentVersion = 1

var ErrUnknownFormat = errors.New("unknown format")

// Document is the exported file layout
type Document struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Addons     addons.Collection `json:"addons"`
}

// ParseFormat accepts a format name or a file path with a known extension
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch s {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Export writes the collection without transient state
func Export(w io.Writer, collection addons.Collection, format Format) error {
	doc := Document{
		Version:    DocumentVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Addons:     stripTransient(collection),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}

	switch format {
	case FormatJSON:
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		// Round trip through generic values so yaml keys follow the json tags
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Import reads and validates a collection. A bare list of entries is
// accepted as well as a full document.
func Import(r io.Reader, format Format) (addons.Collection, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("%w: malformed yaml: %v", addons.ErrValidation, err)
		}
		if raw, err = json.Marshal(generic); err != nil {
			return nil, fmt.Errorf("%w: unsupported yaml content: %v", addons.ErrValidation, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var collection addons.Collection
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		err = json.Unmarshal(trimmed, &collection)
	} else {
		var doc Document
		err = json.Unmarshal(trimmed, &doc)
		if err == nil && doc.Version > DocumentVersion {
			return nil, fmt.Errorf("%w: unsupported document version %d", addons.ErrValidation, doc.Version)
		}
		collection = doc.Addons
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed document: %v", addons.ErrValidation, err)
	}

	if err := Validate(collection); err != nil {
		return nil, err
	}
	return stripTransient(collection), nil
}

// Validate checks every entry and rejects duplicate transport URLs
func Validate(collection addons.Collection) error {
	seen := make(map[string]int, len(collection))
	for i := range collection {
		e := &collection[i]
		if err := addons.ValidateTransportURL(e.TransportURL); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
		if err := e.Manifest.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
		if prev, ok := seen[e.TransportURL]; ok {
			return fmt.Errorf("%w: entries %d and %d share %s", addons.ErrDuplicate, prev+1, i+1, e.TransportURL)
		}
		seen[e.TransportURL] = i
	}
	return nil
}

func stripTransient(c addons.Collection) addons.Collection {
	out := c.Clone()
	if out == nil {
		out = addons.Collection{}
	}
	for i := range out {
		out[i].Selected = false
		out[i].Status = addons.StatusUnchecked
		out[i].Err = ""
	}
	return out
}
