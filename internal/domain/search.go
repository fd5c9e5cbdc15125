package domain

import "strings"

// SearchFormState holds the raw user input of the search form.
// Page fields are kept as typed so a bad value can be reported back verbatim.
type SearchFormState struct {
	Title              string `json:"title"`
	PageFrom           string `json:"page_from"`
	PageTo             string `json:"page_to"`
	GenreFilterEnabled bool   `json:"genre_filter_enabled"`
}

// MaxPage is the highest result page a session will request.
const MaxPage = 100000

// SearchQuery is the finished parameter set sent to a search backend.
type SearchQuery struct {
	TitleFilter   string   `json:"title_filter"`
	GenreIDFilter []string `json:"genre_id_filter"`
	PageFrom      int      `json:"page_from"`
	PageTo        int      `json:"page_to"`
	// Page selects the result page, 0 being the first.
	Page int `json:"page"`
}

// GenreIDLiteral renders the genre filter as ["a","b"], or [] when empty.
// IDs are assumed to contain no quotes or commas.
func (q SearchQuery) GenreIDLiteral() string {
	if len(q.GenreIDFilter) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range q.GenreIDFilter {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(id)
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}

// WithPage returns a copy of q targeting another result page.
func (q SearchQuery) WithPage(page int) SearchQuery {
	q.GenreIDFilter = append([]string(nil), q.GenreIDFilter...)
	q.Page = page
	return q
}
