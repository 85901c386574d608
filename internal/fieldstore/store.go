// Package fieldstore is the shared persistence surface every role view
// reconciles through. Values are whole JSON bundles keyed by logical
// document name; writes are last-write-wins at bundle granularity.
package fieldstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
)

// Well-known logical keys. Each comment key is owned by exactly one
// writing role by convention; nothing enforces it.
const (
	KeyPermitHeader             = "permit-header"
	KeyRequesterComments        = "requester-comments"
	KeyApproverComments         = "approver-comments"
	KeyApproverToSafetyComments = "approver-to-safety-comments"
	KeySafetyComments           = "safety-comments"
	KeySafetyToApproverComments = "safety-to-approver-comments"
	KeyActiveRole               = "active-role"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("fieldstore: key not found")

// Change notifies a subscriber that a key was written externally.
type Change struct {
	Key   string
	Value []byte
}

// Store is the key/value contract standing in for a backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Subscribe delivers external writes to key until the returned
	// cancel func is called. Delivery is best-effort.
	Subscribe(ctx context.Context, key string) (<-chan Change, func())
}

// Load decodes the value at key into out, which must be a non-nil
// pointer. A missing or malformed value leaves out untouched and
// reports false; callers never see an error for bad data, only for
// transport failures. Decoding goes through a scratch value so a
// payload that fails partway never leaks partial state into out.
func Load(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	scratch := reflect.New(reflect.TypeOf(out).Elem())
	if json.Unmarshal(raw, scratch.Interface()) != nil {
		return false, nil
	}
	reflect.ValueOf(out).Elem().Set(scratch.Elem())
	return true, nil
}

// Save encodes value as JSON and writes the whole bundle under key.
func Save(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}
