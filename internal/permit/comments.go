package permit

import (
	"context"
	"strings"

	"permitdesk/api/internal/fieldstore"
	"permitdesk/api/internal/util"
)

// CommentBundle is the fixed-shape message one role addresses to
// another: three flags, an optional planned-shutdown date and a
// checklist of free-text items. Each bundle is writable only by its
// source role; every other role reads it.
type CommentBundle struct {
	RequireUrgent                 bool            `json:"requireUrgent"`
	SafetyManagerApprovalRequired bool            `json:"safetyManagerApprovalRequired"`
	PlannedShutdown               bool            `json:"plannedShutdown"`
	PlannedShutdownDate           string          `json:"plannedShutdownDate,omitempty"`
	CustomComments                []CustomComment `json:"customComments"`
}

type CustomComment struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// NewCommentBundle is the documented default shape readers fall back to
// when a bundle is absent or malformed.
func NewCommentBundle() CommentBundle {
	return CommentBundle{CustomComments: []CustomComment{}}
}

// CommentEdge is one directed role pair in the collaboration graph.
type CommentEdge struct {
	From Role
	To   Role
	Key  string
}

// CommentEdges enumerates every comment bundle a document holds. The
// safety "display" bundle has no receiving editor; it renders on the
// printed form only.
var CommentEdges = []CommentEdge{
	{From: RoleRequester, To: RoleApprover, Key: fieldstore.KeyRequesterComments},
	{From: RoleApprover, To: RoleRequester, Key: fieldstore.KeyApproverComments},
	{From: RoleApprover, To: RoleSafety, Key: fieldstore.KeyApproverToSafetyComments},
	{From: RoleSafety, To: RoleApprover, Key: fieldstore.KeySafetyToApproverComments},
	{From: RoleSafety, To: "", Key: fieldstore.KeySafetyComments},
}

// EdgeKeyFor returns the field store key for the bundle written by from
// toward to.
func EdgeKeyFor(from, to Role) (string, bool) {
	for _, edge := range CommentEdges {
		if edge.From == from && edge.To == to {
			return edge.Key, true
		}
	}
	return "", false
}

// OwnsBundle reports whether role is the writing side of the bundle at
// key.
func OwnsBundle(role Role, key string) bool {
	for _, edge := range CommentEdges {
		if edge.Key == key {
			return edge.From == role
		}
	}
	return false
}

// LoadIncoming reads the bundle at edgeKey as a receiving role. Absent
// or malformed bundles come back as the default shape; only transport
// failures surface.
func LoadIncoming(ctx context.Context, store fieldstore.Store, edgeKey string) (CommentBundle, error) {
	bundle := NewCommentBundle()
	if _, err := fieldstore.Load(ctx, store, edgeKey, &bundle); err != nil {
		return NewCommentBundle(), err
	}
	if bundle.CustomComments == nil {
		bundle.CustomComments = []CustomComment{}
	}
	return bundle, nil
}

// SaveOutgoing writes the whole bundle under edgeKey. Called by the
// owning role on every field change so collaborators stay near
// real-time; last write wins.
func SaveOutgoing(ctx context.Context, store fieldstore.Store, edgeKey string, bundle CommentBundle) error {
	return fieldstore.Save(ctx, store, edgeKey, bundle)
}

// AddCustomComment appends an unchecked comment with a stable id.
// Blank text is a no-op.
func AddCustomComment(bundle CommentBundle, text string) CommentBundle {
	if strings.TrimSpace(text) == "" {
		return bundle
	}
	out := cloneBundle(bundle)
	out.CustomComments = append(out.CustomComments, CustomComment{
		ID:   util.NewID("cc"),
		Text: text,
	})
	return out
}

// ToggleCustomComment flips the checked state of the comment with the
// given id.
func ToggleCustomComment(bundle CommentBundle, id string) CommentBundle {
	out := cloneBundle(bundle)
	for i, comment := range out.CustomComments {
		if comment.ID == id {
			out.CustomComments[i].Checked = !comment.Checked
		}
	}
	return out
}

// RemoveCustomComment removes the comment with the given id. Remaining
// comments keep their identity.
func RemoveCustomComment(bundle CommentBundle, id string) CommentBundle {
	out := cloneBundle(bundle)
	live := out.CustomComments[:0]
	for _, comment := range out.CustomComments {
		if comment.ID != id {
			live = append(live, comment)
		}
	}
	out.CustomComments = live
	return out
}

// IsEmpty reports whether every field of the bundle is at its default,
// the display rule for "no comments yet".
func (b CommentBundle) IsEmpty() bool {
	return !b.RequireUrgent &&
		!b.SafetyManagerApprovalRequired &&
		!b.PlannedShutdown &&
		b.PlannedShutdownDate == "" &&
		len(b.CustomComments) == 0
}

func cloneBundle(b CommentBundle) CommentBundle {
	out := b
	out.CustomComments = append([]CustomComment{}, b.CustomComments...)
	return out
}
