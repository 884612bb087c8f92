package note

import "github.com/use-agent/xhsnote/models"

// EmptyResultMessage is returned when a page rendered but yielded neither a
// title nor body text.
const EmptyResultMessage = "no usable content could be extracted\n\n" +
	"Possible causes:\n" +
	"1. The note requires a logged-in session to view\n" +
	"2. The page structure has changed\n" +
	"3. The link is invalid or the note was removed\n\n" +
	"Suggestion: add the note through manual entry instead"

// Outcome is the verdict on one extraction: either a usable record or the
// reason there is none.
type Outcome struct {
	Record *models.Record
	Reason string
}

// OK reports whether the outcome carries a usable record.
func (o Outcome) OK() bool {
	return o.Reason == "" && o.Record != nil
}

// Validate accepts a record when its title was actually found or its body
// text is non-empty. placeholder is the title normalization fills in when
// none was found; "" means models.DefaultTitle. Everything else, including
// a nil record, fails with EmptyResultMessage.
func Validate(rec *models.Record, placeholder string) Outcome {
	if placeholder == "" {
		placeholder = models.DefaultTitle
	}
	if rec == nil || (!titleFound(rec.Title, placeholder) && rec.Content == "") {
		return Outcome{Reason: EmptyResultMessage}
	}
	return Outcome{Record: rec}
}

func titleFound(title, placeholder string) bool {
	return title != "" && title != placeholder
}
