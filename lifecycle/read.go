package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/schema"
)

// thumbnail formats rendered as the default image format
var nonImageThumbnails = map[string]bool{
	"pdf":  true,
	"psd":  true,
	"tif":  true,
	"tiff": true,
	"svg":  true,
}

const defaultThumbnailFormat = "jpg"

// castRows coerces every stored value into the canonical Go value of its
// field type. Zero dates read as nil.
func (h *Handlers) castRows(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	rows := p.Rows()
	if len(rows) == 0 {
		return p, nil
	}
	c, err := h.schema.Collection(ctx, selectTable(p), false)
	if err != nil {
		return p, err
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = cloneRow(row)
	}
	p.SetRows(schema.CastRecordValues(out, c.Fields()))
	return p, nil
}

// decodeRows turns stored json, boolean and array values of every row back
// into structured values.
func (h *Handlers) decodeRows(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	rows := p.Rows()
	if len(rows) == 0 {
		return p, nil
	}
	c, err := h.schema.Collection(ctx, selectTable(p), false)
	if err != nil {
		return p, err
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		next := cloneRow(row)
		for _, f := range c.Fields(rowKeys(row)...) {
			v := next[f.Name]
			switch {
			case f.IsJSON():
				next[f.Name] = decodeJSON(v)
			case f.IsBoolean():
				next[f.Name] = schema.CastValue(v, catalog.Boolean)
			case f.IsArray():
				next[f.Name] = splitArray(v)
			}
		}
		out[i] = next
	}
	p.SetRows(out)
	return p, nil
}

// decodeJSON decodes string documents. Invalid documents decode to nil.
func decodeJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// splitArray splits comma joined values. Lists pass through.
func splitArray(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (h *Handlers) shapeRows(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	switch selectTable(p) {
	case h.files:
		p.SetRows(h.addFileURLs(p.Rows()))
	case h.messages:
		rows, err := h.loadAttachments(ctx, p.Rows())
		if err != nil {
			return p, err
		}
		p.SetRows(rows)
	}
	return p, nil
}

func (h *Handlers) addFileURLs(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		next := cloneRow(row)
		filename := ""
		if v := row["filename"]; v != nil {
			filename = fmt.Sprint(v)
		}

		parts := strings.Split(filename, ".")
		ext := parts[len(parts)-1]
		base := strings.Join(parts[:len(parts)-1], ".")
		thumbExt := ext
		if nonImageThumbnails[strings.ToLower(ext)] {
			thumbExt = defaultThumbnailFormat
		}

		next["url"] = h.cfg.FilesRootURL + "/" + filename
		next["thumbnail_url"] = h.cfg.ThumbRootURL + "/" + fmt.Sprint(row["id"]) + "." + thumbExt
		if row["type"] == "embed/vimeo" {
			next["old_thumbnail_url"] = h.cfg.ThumbRootURL + "/" + filename + "-vimeo-220-124-true.jpg"
		} else {
			next["old_thumbnail_url"] = h.cfg.ThumbRootURL + "/" + base + "-" + thumbExt + "-160-160-true.jpg"
		}
		out[i] = next
	}
	return out
}

// loadAttachments expands the comma separated attachment ids of message
// rows into file rows fetched with a single lookup.
func (h *Handlers) loadAttachments(ctx context.Context, rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, len(rows))
	perRow := make([][]string, len(rows))
	var ids []any
	seen := map[string]bool{}

	for i, row := range rows {
		out[i] = row
		v, ok := row["attachment"]
		if !ok {
			continue
		}
		next := cloneRow(row)
		next["attachment"] = map[string]any{"data": []map[string]any{}}
		out[i] = next

		if v == nil {
			continue
		}
		for _, id := range strings.Split(fmt.Sprint(v), ",") {
			id = strings.TrimSpace(id)
			if id == "" || id == "0" {
				continue
			}
			perRow[i] = append(perRow[i], id)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	files, err := h.store.FindMany(ctx, h.files, "id", ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]map[string]any, len(files))
	for _, f := range files {
		byID[fmt.Sprint(f["id"])] = f
	}

	for i, wanted := range perRow {
		if len(wanted) == 0 {
			continue
		}
		data := make([]map[string]any, 0, len(wanted))
		for _, id := range wanted {
			if f, ok := byID[id]; ok {
				data = append(data, f)
			}
		}
		out[i]["attachment"] = map[string]any{"data": data}
	}
	return out, nil
}

// selectFilename makes sure file selects always read the filename column.
func (h *Handlers) selectFilename(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
	st, ok := p.SelectState()
	if !ok || len(st.Columns) == 0 {
		return p, nil
	}
	for _, c := range st.Columns {
		if c == "filename" || c == "*" {
			return p, nil
		}
	}
	st.Columns = append(st.Columns, "filename")
	return p, nil
}

var privateUserFields = []string{"token", "email_notifications", "last_access", "last_page"}

// redactUsers always drops passwords. Private fields are only kept for the
// row of the caller and for administrators.
func (h *Handlers) redactUsers(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
	a := acl.FromContext(ctx)
	rows := p.Rows()
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		next := cloneRow(row)
		delete(next, "password")
		if a.GroupID() != h.cfg.AdminGroupID && !sameID(row["id"], a.UserID()) {
			for _, k := range privateUserFields {
				delete(next, k)
			}
		}
		out[i] = next
	}
	p.SetRows(out)
	return p, nil
}

func selectTable(p *hook.Payload) string {
	if st, ok := p.SelectState(); ok && st.Table != "" {
		return st.Table
	}
	return p.Collection()
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func rowKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	return keys
}
