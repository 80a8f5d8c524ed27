package usecase

import (
	"regexp"
	"strings"
	"time"

	"timeline/internal/timeline/domain/model"
)

// DateLayout is how post times are shown.
const DateLayout = "2006年01月02日 15:04"

// EntryView is a timeline entry ready for JSON or the page template.
type EntryView struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	UserIconFileURL string `json:"user_icon_file_url"`
	UserProfileURL  string `json:"user_profile_url"`
	// Body is HTML: escaped text with <br /> before each line break.
	Body         string `json:"body"`
	ImageFileURL string `json:"image_file_url"`
	CreatedAt    string `json:"created_at"`

	// Text is the raw body for templates, which escape on their own.
	Text string `json:"-"`
}

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	lineBreak = regexp.MustCompile(`\r\n|\n\r|\n|\r`)
)

// EscapeBody HTML-escapes s and inserts <br /> before every line break.
func EscapeBody(s string) string {
	return lineBreak.ReplaceAllString(htmlEscaper.Replace(s), "<br />$0")
}

// presenter resolves stored filenames through the image store. User icons live in the same store.
type presenter struct {
	imageURL func(filename string) string
	loc      *time.Location
}

func (p presenter) entry(e *model.Entry) EntryView {
	v := EntryView{
		ID:             e.ID,
		UserID:         e.UserID,
		UserName:       e.Author.Name,
		UserProfileURL: "/profile?user_id=" + e.UserID,
		Body:           EscapeBody(e.Body),
		Text:           e.Body,
		CreatedAt:      e.CreatedAt.In(p.loc).Format(DateLayout),
	}
	if e.Author.IconFilename != "" {
		v.UserIconFileURL = p.imageURL(e.Author.IconFilename)
	}
	if e.ImageFilename != "" {
		v.ImageFileURL = p.imageURL(e.ImageFilename)
	}
	return v
}
