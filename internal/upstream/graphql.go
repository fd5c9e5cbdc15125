package upstream

import (
	"strings"

	"github.com/listenupapp/bookfinder/internal/domain"
)

// booksQuery asks for one page of books plus pagination metadata.
// booksGenreId is the bracketed genre literal, e.g. ["005409001","005409002"].
const booksQuery = `query Books($title: String!, $booksGenreId: String!, $pageNumFrom: Int!, $pageNumTo: Int!, $nowPage: Int!) {
  books(title: $title, booksGenreId: $booksGenreId, pageNumFrom: $pageNumFrom, pageNumTo: $pageNumTo, nowPage: $nowPage) {
    books {
      id
      title
      booksGenreId
      smallImageUrl
      mediumImageUrl
      largeImageUrl
      reviewCount
      reviewAverage
      vocabulary
      page
    }
    pageSet {
      booksPerPage
      nowPage
      totalBooksNum
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables booksVariables `json:"variables"`
}

type booksVariables struct {
	Title        string `json:"title"`
	BooksGenreID string `json:"booksGenreId"`
	PageNumFrom  int    `json:"pageNumFrom"`
	PageNumTo    int    `json:"pageNumTo"`
	NowPage      int    `json:"nowPage"`
}

func newBooksRequest(q domain.SearchQuery) graphqlRequest {
	return graphqlRequest{
		Query: booksQuery,
		Variables: booksVariables{
			Title:        q.TitleFilter,
			BooksGenreID: q.GenreIDLiteral(),
			PageNumFrom:  q.PageFrom,
			PageNumTo:    q.PageTo,
			NowPage:      q.Page,
		},
	}
}

// Raw API response types (internal)

type booksResponse struct {
	Data struct {
		Books *rawBooks `json:"books"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type rawBooks struct {
	Books   []rawBook  `json:"books"`
	PageSet rawPageSet `json:"pageSet"`
}

type rawBook struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	BooksGenreID   string `json:"booksGenreId"`
	SmallImageURL  string `json:"smallImageUrl"`
	MediumImageURL string `json:"mediumImageUrl"`
	LargeImageURL  string `json:"largeImageUrl"`
	ReviewCount    int    `json:"reviewCount"`
	ReviewAverage  string `json:"reviewAverage"`
	Vocabulary     *int   `json:"vocabulary"`
	Page           *int   `json:"page"`
}

type rawPageSet struct {
	BooksPerPage  int `json:"booksPerPage"`
	NowPage       int `json:"nowPage"`
	TotalBooksNum int `json:"totalBooksNum"`
}

func (r *rawBooks) toDomain() *domain.SearchResult {
	books := make([]domain.Book, 0, len(r.Books))
	for _, b := range r.Books {
		books = append(books, domain.Book{
			ID:             b.ID,
			Title:          b.Title,
			BooksGenreID:   b.BooksGenreID,
			SmallImageURL:  b.SmallImageURL,
			MediumImageURL: b.MediumImageURL,
			LargeImageURL:  b.LargeImageURL,
			ReviewCount:    b.ReviewCount,
			ReviewAverage:  b.ReviewAverage,
			Vocabulary:     b.Vocabulary,
			Page:           b.Page,
		})
	}
	return &domain.SearchResult{
		Books: books,
		PageSet: domain.PageSet{
			BooksPerPage:  r.PageSet.BooksPerPage,
			NowPage:       r.PageSet.NowPage,
			TotalBooksNum: r.PageSet.TotalBooksNum,
		},
	}
}

func joinMessages(errs []graphqlError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
