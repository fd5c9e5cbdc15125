package catalog

import (
	"strconv"

	"github.com/listenupapp/bookfinder/internal/domain"
)

// bookDocument is the indexed form of a catalog book.
type bookDocument struct {
	ID          string
	Title       string
	GenreID     string
	Page        *int
	ReviewScore float64
	ReviewCount int
}

func newBookDocument(b domain.Book) bookDocument {
	score, err := strconv.ParseFloat(b.ReviewAverage, 64)
	if err != nil {
		score = 0
	}
	return bookDocument{
		ID:          b.ID,
		Title:       fold(b.Title),
		GenreID:     b.BooksGenreID,
		Page:        b.Page,
		ReviewScore: score,
		ReviewCount: b.ReviewCount,
	}
}

// toMap keys the document by index field name. Books without a page count
// carry no page field and never match a page range.
func (d bookDocument) toMap() map[string]any {
	m := map[string]any{
		fieldTitle:       d.Title,
		fieldGenreID:     d.GenreID,
		fieldReviewScore: d.ReviewScore,
		fieldReviewCount: float64(d.ReviewCount),
	}
	if d.Page != nil {
		m[fieldPage] = float64(*d.Page)
	}
	return m
}
