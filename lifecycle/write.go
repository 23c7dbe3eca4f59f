package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/schema"
)

func (h *Handlers) stampInsert(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	c, err := h.collection(ctx, p)
	if err != nil {
		return p, err
	}

	now := h.now().UTC().Format(schema.DatetimeLayout)
	if f := c.DateCreateField(); f != nil {
		p.Set(f.Name, now)
	}
	if f := c.DateUpdateField(); f != nil {
		p.Set(f.Name, now)
	}

	// users rows are their own creators
	if c.Name == h.users {
		return p, nil
	}

	user := userValue(acl.FromContext(ctx))
	if f := c.UserCreateField(); f != nil {
		p.Set(f.Name, user)
	}
	if f := c.UserUpdateField(); f != nil {
		p.Set(f.Name, user)
	}
	return p, nil
}

func (h *Handlers) stampUpdate(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	c, err := h.collection(ctx, p)
	if err != nil {
		return p, err
	}

	if f := c.DateUpdateField(); f != nil {
		p.Set(f.Name, h.now().UTC().Format(schema.DatetimeLayout))
	}
	if f := c.UserUpdateField(); f != nil {
		p.Set(f.Name, userValue(acl.FromContext(ctx)))
	}
	if c.Name == h.files {
		p.Remove("date_uploaded")
	}
	return p, nil
}

// encodeFields turns structured json and array values into their stored
// string form. Values already in string form pass through.
func (h *Handlers) encodeFields(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	c, err := h.collection(ctx, p)
	if err != nil {
		return p, err
	}
	for _, f := range c.Fields(p.Keys()...) {
		v := p.Value(f.Name)
		switch {
		case f.IsJSON():
			encoded, err := encodeJSON(v)
			if err != nil {
				return p, fmt.Errorf("encode %s.%s: %w", c.Name, f.Name, err)
			}
			p.Set(f.Name, encoded)
		case f.IsArray():
			p.Set(f.Name, joinArray(v))
		}
	}
	return p, nil
}

func encodeJSON(v any) (any, error) {
	switch x := v.(type) {
	case nil, string:
		return v, nil
	case bool:
		if !x {
			return v, nil
		}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// joinArray comma joins list values. Embedded commas are not escaped.
func joinArray(v any) any {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	}
	return v
}

func (h *Handlers) slugInsert(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	return h.slugify(ctx, p, true)
}

func (h *Handlers) slugUpdate(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	return h.slugify(ctx, p, false)
}

func (h *Handlers) slugify(ctx context.Context, p *hook.Payload, insert bool) (*hook.Payload, error) {
	c, err := h.collection(ctx, p)
	if err != nil {
		return p, err
	}
	for _, f := range c.FieldsByInterface(schema.InterfaceSlug) {
		source := f.OptionString("mirrored_field", "")
		if source == "" || !p.Has(source) {
			continue
		}
		if !insert && f.OptionBool("only_on_creation") {
			continue
		}
		var text string
		if v := p.Value(source); v != nil {
			text = fmt.Sprint(v)
		}
		p.Set(f.Name, slug.Make(text))
	}
	return p, nil
}

// hashPasswordFields hashes every password interface value of a non system
// collection. Values are rehashed on every write.
func (h *Handlers) hashPasswordFields(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	if h.schema.IsSystemCollection(p.Collection()) {
		return p, nil
	}
	c, err := h.collection(ctx, p)
	if err != nil {
		return p, err
	}
	for _, key := range p.Keys() {
		f, ok := c.Field(key)
		if !ok || !f.Interface.Is(schema.InterfacePassword) {
			continue
		}
		if err := h.hashKey(p, key); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (h *Handlers) hashUserPassword(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
	if !p.Has("password") {
		return p, nil
	}
	return p, h.hashKey(p, "password")
}

func (h *Handlers) hashKey(p *hook.Payload, key string) error {
	v := p.Value(key)
	if v == nil {
		return nil
	}
	hashed, err := h.hasher.Hash(fmt.Sprint(v))
	if err != nil {
		return fmt.Errorf("hash %s: %w", key, err)
	}
	p.Set(key, hashed)
	return nil
}
