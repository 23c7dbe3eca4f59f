package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/schema"
)

// provisionGroup grants a new group read and update rights on the users
// collection.
func (h *Handlers) provisionGroup(ctx context.Context, p *hook.Payload) error {
	id, ok := p.Get("id")
	if !ok || id == nil {
		return nil
	}
	_, err := h.store.Insert(ctx, h.permissions, map[string]any{
		"group":                 id,
		"collection":            h.users,
		"create":                0,
		"read":                  1,
		"update":                1,
		"delete":                0,
		"read_field_blacklist":  "token",
		"write_field_blacklist": "group,token",
	})
	if err != nil {
		return fmt.Errorf("provision permissions for group %v: %w", id, err)
	}
	return nil
}

// indexTranslations keys the rows of a translation relation by language
// code. The payload column attribute names the relational field.
func (h *Handlers) indexTranslations(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	attr, _ := p.Attribute(hook.AttrColumn)
	field, ok := attr.(*schema.Field)
	if !ok || !field.Interface.Is(schema.InterfaceTranslation) {
		return p, nil
	}

	code := field.OptionString("languages_code_column", "id")
	languages := field.OptionString("languages_table", "")
	left := field.OptionString("left_column_name", "")
	if languages == "" {
		return p, errs.MissingRelationTarget(left, "languages_table")
	}

	c, err := h.schema.Collection(ctx, languages, false)
	if err != nil {
		return p, err
	}
	pk := c.PrimaryKeyName()

	indexed := make(map[string]any, len(p.Rows()))
	for _, row := range p.Rows() {
		next := cloneRow(row)
		index := row[left]
		if lang, ok := row[left].(map[string]any); ok {
			index = lang[code]
			next[left] = lang[pk]
		}
		indexed[fmt.Sprint(index)] = next
	}
	p.Replace(indexed)
	return p, nil
}

// markPublic flags responses served to anonymous callers.
func (h *Handlers) markPublic(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	a := acl.FromContext(ctx)
	if a.IsPublic() || a.UserID() == 0 {
		p.SetAttribute(hook.AttrPublic, true)
	}
	return p, nil
}

func (h *Handlers) logError(ctx context.Context, p *hook.Payload) error {
	v, _ := p.Attribute(hook.AttrError)
	err, ok := v.(error)
	if !ok || err == nil {
		return nil
	}
	logger.FromContext(ctx, h.logger).Error(err.Error(), zap.Error(err))
	return nil
}
