package permit

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldError reports a rejected field update. Updates never panic; the
// original document is returned alongside the error so authoring views
// stay responsive.
type FieldError struct {
	Path   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Path, e.Reason)
}

// WithField returns a copy of doc with the value at the dotted path
// replaced. Paths address JSON field names ("signOff.applicant.name");
// numeric segments index into lists ("attachments.0.name"). An unknown
// path or a value of the wrong type leaves the document unchanged and
// reports the failure.
func WithField(doc Document, path string, value any) (Document, error) {
	if path == "" {
		return doc, &FieldError{Path: path, Reason: "empty path"}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, fmt.Errorf("encode document: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}

	if err := setPath(tree, splitPath(path), value); err != nil {
		return doc, &FieldError{Path: path, Reason: err.Error()}
	}

	updated, err := json.Marshal(tree)
	if err != nil {
		return doc, fmt.Errorf("encode update: %w", err)
	}
	var out Document
	if err := json.Unmarshal(updated, &out); err != nil {
		return doc, &FieldError{Path: path, Reason: "value has wrong type for field"}
	}
	return out, nil
}

func splitPath(path string) []string {
	var segments []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			segments = append(segments, path[start:i])
			start = i + 1
		}
	}
	return segments
}

func setPath(node any, segments []string, value any) error {
	seg := segments[0]
	last := len(segments) == 1

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			return fmt.Errorf("no such field %q", seg)
		}
		if last {
			n[seg] = value
			return nil
		}
		return setPath(child, segments[1:], value)
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(n) {
			return fmt.Errorf("no such element %q", seg)
		}
		if last {
			n[idx] = value
			return nil
		}
		return setPath(n[idx], segments[1:], value)
	default:
		return fmt.Errorf("segment %q does not address a record", seg)
	}
}
