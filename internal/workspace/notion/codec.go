package notion

import (
	"strings"

	"github.com/shelfsync/shelfsync/internal/workspace"
)

// Raw API types (internal)

type rawRichText struct {
	Type      string `json:"type,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

type rawDate struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

type rawOption struct {
	Name string `json:"name"`
}

type rawRef struct {
	ID string `json:"id"`
}

type rawFile struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	External *struct {
		URL string `json:"url"`
	} `json:"external,omitempty"`
	File *struct {
		URL string `json:"url"`
	} `json:"file,omitempty"`
	Emoji string `json:"emoji,omitempty"`
}

func (f *rawFile) url() string {
	switch {
	case f == nil:
		return ""
	case f.External != nil:
		return f.External.URL
	case f.File != nil:
		return f.File.URL
	default:
		return f.Emoji
	}
}

type rawProperty struct {
	Type     string        `json:"type"`
	Title    []rawRichText `json:"title"`
	RichText []rawRichText `json:"rich_text"`
	Number   *float64      `json:"number"`
	Date     *rawDate      `json:"date"`
	Select   *rawOption    `json:"select"`
	Status   *rawOption    `json:"status"`
	URL      *string       `json:"url"`
	Relation []rawRef      `json:"relation"`
	Files    []rawFile     `json:"files"`
	Checkbox bool          `json:"checkbox"`
}

type rawParent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

type rawPage struct {
	ID         string                 `json:"id"`
	Parent     rawParent              `json:"parent"`
	Icon       *rawFile               `json:"icon"`
	Cover      *rawFile               `json:"cover"`
	Properties map[string]rawProperty `json:"properties"`
}

type rawList[T any] struct {
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type rawSchemaProperty struct {
	Type     string `json:"type"`
	Relation *struct {
		DatabaseID string `json:"database_id"`
	} `json:"relation,omitempty"`
	Select *struct {
		Options []rawOption `json:"options"`
	} `json:"select,omitempty"`
}

type rawDatabase struct {
	ID         string                       `json:"id"`
	Title      []rawRichText                `json:"title"`
	Icon       *rawFile                     `json:"icon"`
	Properties map[string]rawSchemaProperty `json:"properties"`
}

type rawBlock struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	HasChildren   bool   `json:"has_children"`
	ChildDatabase *struct {
		Title string `json:"title"`
	} `json:"child_database,omitempty"`
	ChildPage *struct {
		Title string `json:"title"`
	} `json:"child_page,omitempty"`
}

func plainText(parts []rawRichText) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case p.PlainText != "":
			b.WriteString(p.PlainText)
		case p.Text != nil:
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}

func decodeProperty(raw rawProperty) workspace.Property {
	p := workspace.Property{Type: workspace.PropertyType(raw.Type)}
	switch p.Type {
	case workspace.TypeTitle:
		p.Text = plainText(raw.Title)
	case workspace.TypeRichText:
		p.Text = plainText(raw.RichText)
	case workspace.TypeNumber:
		p.Number = raw.Number
	case workspace.TypeDate:
		if raw.Date != nil {
			p.Date = &workspace.DateRange{Start: raw.Date.Start}
			if raw.Date.End != nil {
				p.Date.End = *raw.Date.End
			}
			if raw.Date.TimeZone != nil {
				p.Date.TimeZone = *raw.Date.TimeZone
			}
		}
	case workspace.TypeSelect:
		if raw.Select != nil {
			p.Text = raw.Select.Name
		}
	case workspace.TypeStatus:
		if raw.Status != nil {
			p.Text = raw.Status.Name
		}
	case workspace.TypeURL:
		if raw.URL != nil {
			p.Text = *raw.URL
		}
	case workspace.TypeRelation:
		for _, r := range raw.Relation {
			p.Relation = append(p.Relation, r.ID)
		}
	case workspace.TypeFiles:
		for i := range raw.Files {
			if u := raw.Files[i].url(); u != "" {
				p.Files = append(p.Files, u)
			}
		}
	case workspace.TypeCheckbox:
		p.Checkbox = raw.Checkbox
	}
	return p
}

func decodePage(raw rawPage) workspace.Page {
	page := workspace.Page{
		ID:         raw.ID,
		DatabaseID: raw.Parent.DatabaseID,
		Properties: make(workspace.Properties, len(raw.Properties)),
		Icon:       raw.Icon.url(),
		Cover:      raw.Cover.url(),
	}
	for name, prop := range raw.Properties {
		page.Properties[name] = decodeProperty(prop)
	}
	return page
}

func decodeDatabase(raw rawDatabase) *workspace.Database {
	db := &workspace.Database{
		ID:     raw.ID,
		Title:  plainText(raw.Title),
		Icon:   raw.Icon.url(),
		Schema: make(workspace.Schema, len(raw.Properties)),
	}
	for name, prop := range raw.Properties {
		spec := workspace.PropertySpec{Type: workspace.PropertyType(prop.Type)}
		if prop.Relation != nil {
			spec.RelationTo = prop.Relation.DatabaseID
		}
		if prop.Select != nil {
			for _, o := range prop.Select.Options {
				spec.Options = append(spec.Options, o.Name)
			}
		}
		db.Schema[name] = spec
	}
	return db
}

func decodeBlock(raw rawBlock) workspace.Block {
	b := workspace.Block{ID: raw.ID, Type: raw.Type, HasChildren: raw.HasChildren}
	switch {
	case raw.ChildDatabase != nil:
		b.Title = raw.ChildDatabase.Title
	case raw.ChildPage != nil:
		b.Title = raw.ChildPage.Title
	}
	return b
}

func textValue(s string) []map[string]any {
	return []map[string]any{{"type": "text", "text": map[string]any{"content": s}}}
}

func encodeProperty(p workspace.Property) map[string]any {
	switch p.Type {
	case workspace.TypeTitle:
		return map[string]any{"title": textValue(p.Text)}
	case workspace.TypeRichText:
		return map[string]any{"rich_text": textValue(p.Text)}
	case workspace.TypeNumber:
		return map[string]any{"number": p.Number}
	case workspace.TypeDate:
		if p.Date == nil {
			return map[string]any{"date": nil}
		}
		d := map[string]any{"start": p.Date.Start, "end": nil}
		if p.Date.End != "" {
			d["end"] = p.Date.End
		}
		if p.Date.TimeZone != "" {
			d["time_zone"] = p.Date.TimeZone
		}
		return map[string]any{"date": d}
	case workspace.TypeSelect, workspace.TypeStatus:
		if p.Text == "" {
			return map[string]any{string(p.Type): nil}
		}
		return map[string]any{string(p.Type): map[string]any{"name": p.Text}}
	case workspace.TypeURL:
		if p.Text == "" {
			return map[string]any{"url": nil}
		}
		return map[string]any{"url": p.Text}
	case workspace.TypeRelation:
		refs := make([]map[string]any, 0, len(p.Relation))
		for _, id := range p.Relation {
			refs = append(refs, map[string]any{"id": id})
		}
		return map[string]any{"relation": refs}
	case workspace.TypeFiles:
		files := make([]map[string]any, 0, len(p.Files))
		for _, u := range p.Files {
			files = append(files, map[string]any{"type": "external", "name": "Cover", "external": map[string]any{"url": u}})
		}
		return map[string]any{"files": files}
	case workspace.TypeCheckbox:
		return map[string]any{"checkbox": p.Checkbox}
	default:
		return map[string]any{}
	}
}

func encodeProperties(props workspace.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		out[name] = encodeProperty(p)
	}
	return out
}

func encodeSchema(schema workspace.Schema) map[string]any {
	out := make(map[string]any, len(schema))
	for name, spec := range schema {
		switch spec.Type {
		case workspace.TypeRelation:
			out[name] = map[string]any{"relation": map[string]any{
				"database_id":     spec.RelationTo,
				"single_property": map[string]any{},
			}}
		case workspace.TypeSelect:
			opts := make([]map[string]any, 0, len(spec.Options))
			for _, o := range spec.Options {
				opts = append(opts, map[string]any{"name": o})
			}
			out[name] = map[string]any{"select": map[string]any{"options": opts}}
		case workspace.TypeStatus:
			// The API cannot create status properties.
			out[name] = map[string]any{"select": map[string]any{}}
		default:
			out[name] = map[string]any{string(spec.Type): map[string]any{}}
		}
	}
	return out
}

func icon(url string) map[string]any {
	if url == "" {
		return nil
	}
	return map[string]any{"type": "external", "external": map[string]any{"url": url}}
}
