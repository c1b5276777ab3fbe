package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfsync/shelfsync/internal/workspace"
)

// NodeIcon is the icon of every calendar node.
const NodeIcon = "https://www.notion.so/icons/target_red.svg"

// Property names shared by node databases.
const (
	PropTitle     = "Title"
	PropDate      = "Date"
	PropTimestamp = "Timestamp"
	PropDay       = "Day"
	PropWeek      = "Week"
	PropMonth     = "Month"
	PropYear      = "Year"
)

// Cache remembers resolved node ids for the duration of a run, keyed by
// database scope and label.
type Cache interface {
	Relation(scope, label string) (string, bool)
	Remember(scope, label, id string)
}

// Databases names the node database of each variant.
type Databases struct {
	Day   string
	Week  string
	Month string
	Year  string
}

// ID returns the database holding nodes of variant v.
func (d Databases) ID(v Variant) string {
	switch v {
	case Week:
		return d.Week
	case Month:
		return d.Month
	case Year:
		return d.Year
	default:
		return d.Day
	}
}

// Relations are the node ids of the four buckets a point in time falls in.
type Relations struct {
	Year  string
	Month string
	Week  string
	Day   string
}

// Apply sets the Year, Month and Week relations on props, and Day unless it
// is empty.
func (r Relations) Apply(props workspace.Properties) {
	props[PropYear] = workspace.Relation(r.Year)
	props[PropMonth] = workspace.Relation(r.Month)
	props[PropWeek] = workspace.Relation(r.Week)
	if r.Day != "" {
		props[PropDay] = workspace.Relation(r.Day)
	}
}

// Resolver maps points in time to calendar nodes, creating nodes that do
// not exist yet.
type Resolver struct {
	ws      workspace.Workspace
	cache   Cache
	dbs     Databases
	loc     *time.Location
	logger  *slog.Logger
	created int
}

// NewResolver creates a resolver evaluating dates in loc.
func NewResolver(ws workspace.Workspace, cache Cache, dbs Databases, loc *time.Location, logger *slog.Logger) *Resolver {
	return &Resolver{
		ws:     ws,
		cache:  cache,
		dbs:    dbs,
		loc:    loc,
		logger: logger,
	}
}

// Created returns how many pages LookupOrCreate has created.
func (r *Resolver) Created() int {
	return r.created
}

// Location returns the reference time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve returns the node id of the v bucket containing t.
func (r *Resolver) Resolve(ctx context.Context, t time.Time, v Variant) (string, error) {
	t = t.In(r.loc)
	if v == Day {
		return r.resolveDay(ctx, t)
	}

	start, end := Range(t, v)
	props := workspace.Properties{
		PropDate: workspace.Date(start, end, r.loc),
	}
	return r.LookupOrCreate(ctx, r.dbs.ID(v), Label(t, v), NodeIcon, props)
}

// Relations resolves all four buckets of t, Year first and Day last.
func (r *Resolver) Relations(ctx context.Context, t time.Time) (Relations, error) {
	parents, err := r.parents(ctx, t.In(r.loc))
	if err != nil {
		return Relations{}, err
	}
	parents.Day, err = r.Resolve(ctx, t, Day)
	if err != nil {
		return Relations{}, err
	}
	return parents, nil
}

// Parents resolves the Year, Month and Week buckets of t.
func (r *Resolver) Parents(ctx context.Context, t time.Time) (Relations, error) {
	return r.parents(ctx, t.In(r.loc))
}

func (r *Resolver) parents(ctx context.Context, t time.Time) (Relations, error) {
	var (
		rel Relations
		err error
	)
	if rel.Year, err = r.Resolve(ctx, t, Year); err != nil {
		return Relations{}, err
	}
	if rel.Month, err = r.Resolve(ctx, t, Month); err != nil {
		return Relations{}, err
	}
	if rel.Week, err = r.Resolve(ctx, t, Week); err != nil {
		return Relations{}, err
	}
	return rel, nil
}

// resolveDay looks the day up before resolving its parents, so a known day
// costs no parent lookups.
func (r *Resolver) resolveDay(ctx context.Context, t time.Time) (string, error) {
	scope, label := r.dbs.Day, Label(t, Day)
	if id, ok := r.cache.Relation(scope, label); ok {
		return id, nil
	}
	if id, ok, err := r.lookup(ctx, scope, label); err != nil || ok {
		return id, err
	}

	parents, err := r.parents(ctx, t)
	if err != nil {
		return "", err
	}
	day := StartOfDay(t)
	props := workspace.Properties{
		PropDate:      workspace.Date(day, time.Time{}, r.loc),
		PropTimestamp: workspace.Int(day.Unix()),
	}
	parents.Apply(props)
	return r.create(ctx, scope, label, NodeIcon, props)
}

// LookupOrCreate returns the id of the page titled label in databaseID:
// from the run cache, else the first exact title match in the database,
// else a new page created with props and that title.
func (r *Resolver) LookupOrCreate(ctx context.Context, databaseID, label, icon string, props workspace.Properties) (string, error) {
	if id, ok := r.cache.Relation(databaseID, label); ok {
		return id, nil
	}
	if id, ok, err := r.lookup(ctx, databaseID, label); err != nil || ok {
		return id, err
	}
	return r.create(ctx, databaseID, label, icon, props)
}

// Lookup returns the id of the page titled label in databaseID, from the
// run cache or an exact title match. It never creates.
func (r *Resolver) Lookup(ctx context.Context, databaseID, label string) (string, bool, error) {
	if id, ok := r.cache.Relation(databaseID, label); ok {
		return id, true, nil
	}
	return r.lookup(ctx, databaseID, label)
}

func (r *Resolver) lookup(ctx context.Context, databaseID, label string) (string, bool, error) {
	res, err := r.ws.Query(ctx, databaseID, workspace.TitleEquals(PropTitle, label), "", 1)
	if err != nil {
		return "", false, fmt.Errorf("look up %q: %w", label, err)
	}
	if len(res.Pages) == 0 {
		return "", false, nil
	}
	id := res.Pages[0].ID
	r.cache.Remember(databaseID, label, id)
	return id, true, nil
}

func (r *Resolver) create(ctx context.Context, databaseID, label, icon string, props workspace.Properties) (string, error) {
	if props == nil {
		props = workspace.Properties{}
	}
	props[PropTitle] = workspace.Title(label)

	page, err := r.ws.CreatePage(ctx, databaseID, props, icon, "")
	if err != nil {
		return "", fmt.Errorf("create %q: %w", label, err)
	}
	r.created++
	r.cache.Remember(databaseID, label, page.ID)
	r.logger.Debug("created node", "database", databaseID, "label", label, "id", page.ID)
	return page.ID, nil
}
