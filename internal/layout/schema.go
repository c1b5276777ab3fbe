package layout

import (
	"github.com/shelfsync/shelfsync/internal/calendar"
	"github.com/shelfsync/shelfsync/internal/workspace"
)

// Bookshelf properties.
const (
	PropTitle         = calendar.PropTitle
	PropBookID        = "BookId"
	PropISBN          = "ISBN"
	PropLink          = "Link"
	PropIntro         = "Introduction"
	PropAuthor        = "Author"
	PropCategories    = "Categories"
	PropSort          = "Sort"
	PropRating        = "Rating"
	PropCategory      = "Bookshelf Category"
	PropStatus        = "Reading Status"
	PropReadingTime   = "Reading Time"
	PropProgress      = "Reading Progress"
	PropReadingDays   = "Reading Days"
	PropDate          = calendar.PropDate
	PropStartDate     = "Start Reading Date"
	PropLastDate      = "Last Reading Date"
	PropMyRating      = "My Rating"
	PropDoubanLink    = "Douban Link"
	PropDoubanComment = "Douban Comment"
	PropDay           = calendar.PropDay
)

// Reading Records and Day properties.
const (
	PropTimestamp = calendar.PropTimestamp
	PropDuration  = "Duration"
	PropBookshelf = "Bookshelf"
)

// Settings properties. The single settings row is titled SettingsRowTitle.
const (
	PropSyncBookmarks = "Sync Bookmarks"
	PropLastSyncTime  = "Last Sync Time"
	SettingsRowTitle  = "Settings"
)

// Highlights and Notes properties.
const (
	PropAnnotationName = "Name"
	PropBooks          = "Books"
	PropAnnotBookID    = "bookId"
	PropBookmarkID     = "bookmarkId"
	PropReviewID       = "reviewId"
	PropRange          = "range"
	PropAbstract       = "abstract"
	PropChapterUID     = "chapterUid"
	PropBookVersion    = "bookVersion"
	PropColorStyle     = "colorStyle"
	PropAnnotationType = "type"
	PropStyle          = "style"
	PropStar           = "star"
)

// Database icons.
const (
	IconReadingRecords = "https://www.notion.so/icons/target_gray.svg"
	IconSettings       = "https://www.notion.so/icons/gear_gray.svg"
	IconBookshelf      = "https://www.notion.so/icons/book_gray.svg"
	IconAuthors        = "https://www.notion.so/icons/user-circle-filled_gray.svg"
	IconTags           = "https://www.notion.so/icons/tag_gray.svg"
	IconHighlights     = "https://www.notion.so/icons/bookmark_gray.svg"
)

// bookshelfUpgrade lists the Bookshelf properties that older workspaces may
// lack or carry with another type.
var bookshelfUpgrade = workspace.Schema{
	PropReadingTime:   {Type: workspace.TypeNumber},
	PropCategory:      {Type: workspace.TypeSelect},
	PropDoubanLink:    {Type: workspace.TypeURL},
	PropMyRating:      {Type: workspace.TypeSelect},
	PropDoubanComment: {Type: workspace.TypeRichText},
}

func spec(t workspace.PropertyType) workspace.PropertySpec {
	return workspace.PropertySpec{Type: t}
}

func relation(databaseID string) workspace.PropertySpec {
	return workspace.PropertySpec{Type: workspace.TypeRelation, RelationTo: databaseID}
}

// withCalendar adds Year, Month and Week relations, and Day when withDay is set.
func withCalendar(s workspace.Schema, dbs *Databases, withDay bool) workspace.Schema {
	s[calendar.PropYear] = relation(dbs.Year)
	s[calendar.PropMonth] = relation(dbs.Month)
	s[calendar.PropWeek] = relation(dbs.Week)
	if withDay {
		s[calendar.PropDay] = relation(dbs.Day)
	}
	return s
}

func tagSchema(*Databases) workspace.Schema {
	return workspace.Schema{PropTitle: spec(workspace.TypeTitle)}
}

func periodSchema(*Databases) workspace.Schema {
	return workspace.Schema{
		PropTitle: spec(workspace.TypeTitle),
		PropDate:  spec(workspace.TypeDate),
	}
}

func daySchema(dbs *Databases) workspace.Schema {
	return withCalendar(workspace.Schema{
		PropTitle:     spec(workspace.TypeTitle),
		PropDate:      spec(workspace.TypeDate),
		PropTimestamp: spec(workspace.TypeNumber),
		PropDuration:  spec(workspace.TypeNumber),
	}, dbs, false)
}

func bookshelfSchema(dbs *Databases) workspace.Schema {
	s := withCalendar(workspace.Schema{
		PropTitle:       spec(workspace.TypeTitle),
		PropBookID:      spec(workspace.TypeRichText),
		PropISBN:        spec(workspace.TypeRichText),
		PropLink:        spec(workspace.TypeURL),
		PropIntro:       spec(workspace.TypeRichText),
		PropAuthor:      relation(dbs.Author),
		PropCategories:  relation(dbs.Category),
		PropSort:        spec(workspace.TypeNumber),
		PropRating:      spec(workspace.TypeNumber),
		PropStatus:      spec(workspace.TypeStatus),
		PropProgress:    spec(workspace.TypeNumber),
		PropReadingDays: spec(workspace.TypeNumber),
		PropDate:        spec(workspace.TypeDate),
		PropStartDate:   spec(workspace.TypeDate),
		PropLastDate:    spec(workspace.TypeDate),
	}, dbs, true)
	for name, p := range bookshelfUpgrade {
		s[name] = p
	}
	return s
}

func recordsSchema(dbs *Databases) workspace.Schema {
	return withCalendar(workspace.Schema{
		PropTitle:     spec(workspace.TypeTitle),
		PropDuration:  spec(workspace.TypeNumber),
		PropTimestamp: spec(workspace.TypeNumber),
		PropDate:      spec(workspace.TypeDate),
		PropBookshelf: relation(dbs.Book),
	}, dbs, true)
}

func highlightsSchema(dbs *Databases) workspace.Schema {
	return withCalendar(workspace.Schema{
		PropAnnotationName: spec(workspace.TypeTitle),
		PropAnnotBookID:    spec(workspace.TypeRichText),
		PropBookmarkID:     spec(workspace.TypeRichText),
		PropRange:          spec(workspace.TypeRichText),
		PropChapterUID:     spec(workspace.TypeNumber),
		PropBookVersion:    spec(workspace.TypeNumber),
		PropColorStyle:     spec(workspace.TypeNumber),
		PropAnnotationType: spec(workspace.TypeNumber),
		PropStyle:          spec(workspace.TypeNumber),
		PropBooks:          relation(dbs.Book),
		PropDate:           spec(workspace.TypeDate),
	}, dbs, true)
}

func notesSchema(dbs *Databases) workspace.Schema {
	return withCalendar(workspace.Schema{
		PropAnnotationName: spec(workspace.TypeTitle),
		PropAnnotBookID:    spec(workspace.TypeRichText),
		PropReviewID:       spec(workspace.TypeRichText),
		PropRange:          spec(workspace.TypeRichText),
		PropAbstract:       spec(workspace.TypeRichText),
		PropChapterUID:     spec(workspace.TypeNumber),
		PropBookVersion:    spec(workspace.TypeNumber),
		PropAnnotationType: spec(workspace.TypeNumber),
		PropStar:           spec(workspace.TypeNumber),
		PropBooks:          relation(dbs.Book),
		PropDate:           spec(workspace.TypeDate),
	}, dbs, true)
}

func settingsSchema(*Databases) workspace.Schema {
	return workspace.Schema{
		PropTitle:         spec(workspace.TypeTitle),
		PropSyncBookmarks: spec(workspace.TypeCheckbox),
		PropLastSyncTime:  spec(workspace.TypeDate),
	}
}
