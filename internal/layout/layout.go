// Package layout finds the databases that make up a shelfsync workspace
// under its root page, creates the ones that are missing and keeps the
// Bookshelf schema current.
package layout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/config"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// Databases holds the id of every workspace database.
type Databases struct {
	Book     string
	Review   string
	Bookmark string
	Day      string
	Week     string
	Month    string
	Year     string
	Category string
	Author   string
	Read     string
	Setting  string

	// StatusType is the type of the Bookshelf's Reading Status column:
	// status, or select where the workspace could not create a status.
	StatusType workspace.PropertyType
}

// Status builds a Reading Status value for the Bookshelf's column type.
func (d Databases) Status(name string) workspace.Property {
	if d.StatusType == workspace.TypeSelect {
		return workspace.Select(name)
	}
	return workspace.Status(name)
}

// Calendar returns the node databases used by the calendar resolver.
func (d Databases) Calendar() calendar.Databases {
	return calendar.Databases{Day: d.Day, Week: d.Week, Month: d.Month, Year: d.Year}
}

// entry describes one database: where its id goes, its configured title,
// its icon and how to build its schema from the databases created before it.
type entry struct {
	id     *string
	title  string
	icon   string
	schema func(*Databases) workspace.Schema
}

// Layout locates and provisions databases under a root page.
type Layout struct {
	ws     workspace.Workspace
	root   string
	names  config.DatabaseNames
	loc    *time.Location
	logger *slog.Logger
}

// New creates a Layout for the databases under rootPageID.
func New(ws workspace.Workspace, rootPageID string, names config.DatabaseNames, loc *time.Location, logger *slog.Logger) *Layout {
	return &Layout{
		ws:     ws,
		root:   rootPageID,
		names:  names,
		loc:    loc,
		logger: logger,
	}
}

// entries lists the databases in creation order: every relation target
// precedes the databases that refer to it.
func (l *Layout) entries(dbs *Databases) []entry {
	return []entry{
		{&dbs.Author, l.names.Author, IconAuthors, tagSchema},
		{&dbs.Category, l.names.Category, IconTags, tagSchema},
		{&dbs.Year, l.names.Year, calendar.NodeIcon, periodSchema},
		{&dbs.Month, l.names.Month, calendar.NodeIcon, periodSchema},
		{&dbs.Week, l.names.Week, calendar.NodeIcon, periodSchema},
		{&dbs.Day, l.names.Day, calendar.NodeIcon, daySchema},
		{&dbs.Book, l.names.Book, IconBookshelf, bookshelfSchema},
		{&dbs.Read, l.names.Read, IconReadingRecords, recordsSchema},
		{&dbs.Bookmark, l.names.Bookmark, IconHighlights, highlightsSchema},
		{&dbs.Review, l.names.Review, IconTags, notesSchema},
		{&dbs.Setting, l.names.Setting, IconSettings, settingsSchema},
	}
}

// Discover walks the root page and every block with children, mapping each
// child database title to its id. When two databases share a title the
// first one found wins.
func (l *Layout) Discover(ctx context.Context) (map[string]string, error) {
	found := make(map[string]string)
	if err := l.walk(ctx, l.root, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (l *Layout) walk(ctx context.Context, blockID string, found map[string]string) error {
	children, err := l.ws.ListChildren(ctx, blockID)
	if err != nil {
		return fmt.Errorf("list children of %s: %w", blockID, err)
	}
	for _, child := range children {
		if child.Type == workspace.BlockChildDatabase {
			if _, ok := found[child.Title]; !ok {
				found[child.Title] = child.ID
			}
			continue
		}
		if child.HasChildren {
			if err := l.walk(ctx, child.ID, found); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ensure returns the ids of all databases, creating the missing ones, and
// adds or retypes the Bookshelf properties older workspaces lack.
func (l *Layout) Ensure(ctx context.Context) (*Databases, error) {
	found, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}

	dbs := &Databases{}
	var bookshelf workspace.Schema
	for _, e := range l.entries(dbs) {
		if id, ok := found[e.title]; ok {
			*e.id = id
			if e.id == &dbs.Book {
				if bookshelf, err = l.upgradeBookshelf(ctx, id); err != nil {
					return nil, err
				}
			}
			continue
		}
		db, err := l.ws.CreateDatabase(ctx, l.root, e.title, e.icon, e.schema(dbs))
		if err != nil {
			return nil, fmt.Errorf("create database %q: %w", e.title, err)
		}
		*e.id = db.ID
		if e.id == &dbs.Book {
			bookshelf = db.Schema
		}
		l.logger.Info("database created", "title", e.title, "id", db.ID)
	}

	dbs.StatusType = workspace.TypeStatus
	if bookshelf[PropStatus].Type == workspace.TypeSelect {
		dbs.StatusType = workspace.TypeSelect
	}
	return dbs, nil
}

// upgradeBookshelf adds or retypes missing properties and returns the
// schema as it was before the upgrade.
func (l *Layout) upgradeBookshelf(ctx context.Context, bookDB string) (workspace.Schema, error) {
	db, err := l.ws.RetrieveDatabase(ctx, bookDB)
	if err != nil {
		return nil, fmt.Errorf("retrieve bookshelf: %w", err)
	}

	missing := workspace.Schema{}
	for name, want := range bookshelfUpgrade {
		if have, ok := db.Schema[name]; !ok || have.Type != want.Type {
			missing[name] = want
		}
	}
	if len(missing) == 0 {
		return db.Schema, nil
	}
	if _, err := l.ws.UpdateDatabase(ctx, bookDB, missing); err != nil {
		return nil, fmt.Errorf("upgrade bookshelf schema: %w", err)
	}
	l.logger.Info("bookshelf schema upgraded", "properties", len(missing))
	return db.Schema, nil
}

// TouchSettings stamps the Settings row with now, creating the row if it
// does not exist, and reports whether highlights and notes should be
// synced. A new row enables them.
func (l *Layout) TouchSettings(ctx context.Context, settingDB string, now time.Time) (bool, error) {
	res, err := l.ws.Query(ctx, settingDB, workspace.TitleEquals(PropTitle, SettingsRowTitle), "", 1)
	if err != nil {
		return false, fmt.Errorf("query settings: %w", err)
	}

	props := workspace.Properties{
		PropTitle:        workspace.Title(SettingsRowTitle),
		PropLastSyncTime: workspace.Date(now, time.Time{}, l.loc),
	}
	if len(res.Pages) > 0 {
		row := res.Pages[0]
		enabled, ok := row.Properties.Checkbox(PropSyncBookmarks)
		if _, err := l.ws.UpdatePage(ctx, row.ID, props, ""); err != nil {
			return false, fmt.Errorf("update settings: %w", err)
		}
		return enabled || !ok, nil
	}

	props[PropSyncBookmarks] = workspace.Checkbox(true)
	if _, err := l.ws.CreatePage(ctx, settingDB, props, "", ""); err != nil {
		return false, fmt.Errorf("create settings: %w", err)
	}
	return true, nil
}
