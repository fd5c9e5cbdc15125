// Package domain contains the entities shared by the bookfinder search session:
// the genre selection tree, the search form and query, and search results.
package domain

// Book is one search hit as returned by the search endpoint.
// Vocabulary and Page are optional upstream and stay nil when unknown.
type Book struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	BooksGenreID   string `json:"books_genre_id"`
	SmallImageURL  string `json:"small_image_url"`
	MediumImageURL string `json:"medium_image_url"`
	LargeImageURL  string `json:"large_image_url"`
	ReviewCount    int    `json:"review_count"`
	ReviewAverage  string `json:"review_average"` // decimal string, e.g. "4.21"
	Vocabulary     *int   `json:"vocabulary,omitempty"`
	Page           *int   `json:"page,omitempty"`
}

// PageSet is the pagination metadata that accompanies a result list.
type PageSet struct {
	BooksPerPage  int `json:"books_per_page"`
	NowPage       int `json:"now_page"`
	TotalBooksNum int `json:"total_books_num"`
}

// TotalPages returns how many result pages exist, at least 1.
func (p PageSet) TotalPages() int {
	if p.BooksPerPage <= 0 || p.TotalBooksNum <= 0 {
		return 1
	}
	return (p.TotalBooksNum + p.BooksPerPage - 1) / p.BooksPerPage
}

// SearchResult is the successful outcome of one search call.
type SearchResult struct {
	Books   []Book  `json:"books"`
	PageSet PageSet `json:"page_set"`
}
