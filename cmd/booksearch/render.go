package main

import (
	"strconv"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/genre"
)

// unknownValue stands in for a missing page count, vocabulary or review average.
const unknownValue = "不明"

// noBooksMessage is shown when a search matched nothing.
const noBooksMessage = "書籍がありません。"

type genreLeafOut struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Heading string `json:"heading" yaml:"heading"`
}

type genreGroupOut struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Heading string         `json:"heading" yaml:"heading"`
	Genres  []genreLeafOut `json:"genres" yaml:"genres"`
}

func renderTree(state domain.SelectionState) []genreGroupOut {
	out := make([]genreGroupOut, len(state))
	for i, g := range state {
		leaves := make([]genreLeafOut, len(g.Genres))
		for j, leaf := range g.Genres {
			leaves[j] = genreLeafOut{
				ID:      leaf.ID,
				Name:    leaf.DisplayName,
				Heading: genre.ShapeName(leaf.DisplayName),
			}
		}
		out[i] = genreGroupOut{
			ID:      g.ID,
			Name:    g.DisplayName,
			Heading: genre.ShapeName(g.DisplayName),
			Genres:  leaves,
		}
	}
	return out
}

type queryOut struct {
	Title        string `json:"title" yaml:"title"`
	BooksGenreID string `json:"booksGenreId" yaml:"booksGenreId"`
	PageNumFrom  int    `json:"pageNumFrom" yaml:"pageNumFrom"`
	PageNumTo    int    `json:"pageNumTo" yaml:"pageNumTo"`
	NowPage      int    `json:"nowPage" yaml:"nowPage"`
}

type bookOut struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	BooksGenreID  string `json:"booksGenreId" yaml:"booksGenreId"`
	Page          string `json:"page" yaml:"page"`
	Vocabulary    string `json:"vocabulary" yaml:"vocabulary"`
	ReviewAverage string `json:"reviewAverage" yaml:"reviewAverage"`
	ReviewCount   int    `json:"reviewCount" yaml:"reviewCount"`
	ImageURL      string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

type pageSetOut struct {
	BooksPerPage  int `json:"booksPerPage" yaml:"booksPerPage"`
	NowPage       int `json:"nowPage" yaml:"nowPage"`
	TotalBooksNum int `json:"totalBooksNum" yaml:"totalBooksNum"`
	TotalPages    int `json:"totalPages" yaml:"totalPages"`
}

type searchOut struct {
	Query   queryOut   `json:"query" yaml:"query"`
	PageSet pageSetOut `json:"pageSet" yaml:"pageSet"`
	Books   []bookOut  `json:"books" yaml:"books"`
	Message string     `json:"message,omitempty" yaml:"message,omitempty"`
}

func renderSearch(q domain.SearchQuery, result *domain.SearchResult) searchOut {
	out := searchOut{
		Query: queryOut{
			Title:        q.TitleFilter,
			BooksGenreID: q.GenreIDLiteral(),
			PageNumFrom:  q.PageFrom,
			PageNumTo:    q.PageTo,
			NowPage:      q.Page,
		},
		PageSet: pageSetOut{
			BooksPerPage:  result.PageSet.BooksPerPage,
			NowPage:       result.PageSet.NowPage,
			TotalBooksNum: result.PageSet.TotalBooksNum,
			TotalPages:    result.PageSet.TotalPages(),
		},
		Books: make([]bookOut, len(result.Books)),
	}
	for i, b := range result.Books {
		out.Books[i] = bookOut{
			ID:            b.ID,
			Title:         b.Title,
			BooksGenreID:  b.BooksGenreID,
			Page:          showInt(b.Page),
			Vocabulary:    showInt(b.Vocabulary),
			ReviewAverage: showString(b.ReviewAverage),
			ReviewCount:   b.ReviewCount,
			ImageURL:      b.LargeImageURL,
		}
	}
	if len(out.Books) == 0 {
		out.Message = noBooksMessage
	}
	return out
}

func showString(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}

func showInt(n *int) string {
	if n == nil {
		return unknownValue
	}
	return strconv.Itoa(*n)
}
