package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
)

// guardSelfUpdate rejects users updating their own row unless they belong
// to a group and may update the users collection.
func (h *Handlers) guardSelfUpdate(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	a := acl.FromContext(ctx)
	target := targetID(p)
	if target == nil || !sameID(target, a.UserID()) {
		return p, nil
	}

	group, err := h.userGroup(ctx, target)
	if err != nil {
		return p, err
	}
	if group == nil || !a.CanUpdate(h.users) {
		return p, errs.Forbidden("you are not allowed to update your user information")
	}
	return p, nil
}

// preventPublicGroup rejects users assigned to the group named public.
func (h *Handlers) preventPublicGroup(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	v, ok := p.Get("group")
	if !ok {
		return p, nil
	}
	if m, isMap := v.(map[string]any); isMap {
		v = m["id"]
	}
	if isBlank(v) {
		return p, nil
	}

	row, err := h.store.Find(ctx, h.groups, v)
	if err != nil {
		return p, err
	}
	if row != nil && strings.EqualFold(fmt.Sprint(row["name"]), "public") {
		return p, errs.Forbidden("users cannot be added into the public group")
	}
	return p, nil
}

func (h *Handlers) guardFiles(ctx context.Context, _ *hook.Payload) error {
	a := acl.FromContext(ctx)
	group, err := h.userGroup(ctx, a.UserID())
	if err != nil {
		return err
	}
	if group == nil || !a.CanUpdate(h.files) {
		return errs.Forbidden("you are not allowed to upload, edit or delete files")
	}
	return nil
}

func (h *Handlers) guardFilesFilter(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	return p, h.guardFiles(ctx, p)
}

// userGroup loads the group row of a user. Missing users and groups yield
// a nil row.
func (h *Handlers) userGroup(ctx context.Context, userID any) (map[string]any, error) {
	if isBlank(userID) {
		return nil, nil
	}
	user, err := h.store.Find(ctx, h.users, userID)
	if err != nil || user == nil {
		return nil, err
	}
	if isBlank(user["group"]) {
		return nil, nil
	}
	return h.store.Find(ctx, h.groups, user["group"])
}

// targetID returns the id of the row an update payload addresses.
func targetID(p *hook.Payload) any {
	if v, ok := p.Get("id"); ok && v != nil {
		return v
	}
	if ids := p.IDs(); len(ids) == 1 {
		return ids[0]
	}
	return nil
}

func sameID(v any, id int64) bool {
	return fmt.Sprint(v) == fmt.Sprint(id)
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == "" || x == "0"
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	}
	return false
}
