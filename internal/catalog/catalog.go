// Package catalog is an in-process search backend: a bleve in-memory index
// over a seed of books plus the genre taxonomy that goes with them. It serves
// the same two calls as the remote endpoint, so a session can run without one.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/errors"
	bfquery "github.com/listenupapp/bookfinder/internal/query"
)

//go:embed seed.json
var defaultSeed []byte

const defaultPerPage = 30

// Seed is the on-disk catalog format. GenreGroups keeps the taxonomy wire
// shape so it can be served verbatim.
type Seed struct {
	GenreGroups json.RawMessage `json:"genreGroups"`
	Books       []SeedBook      `json:"books"`
}

// SeedBook mirrors the search endpoint's book shape.
type SeedBook struct {
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

// Options configures the catalog.
type Options struct {
	Path    string // Seed file; empty uses the built-in seed
	PerPage int
	Logger  *slog.Logger
}

// Catalog answers taxonomy and book searches from memory.
//
// Thread safety: All public methods are safe for concurrent use.
type Catalog struct {
	index    bleve.Index
	books    map[string]domain.Book
	taxonomy []byte
	perPage  int
	logger   *slog.Logger
	mu       sync.RWMutex
}

// Open loads the seed and builds the index.
func Open(opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	raw := defaultSeed
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("read catalog seed: %w", err)
		}
		raw = data
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	if len(bytes.TrimSpace(seed.GenreGroups)) == 0 {
		return nil, fmt.Errorf("catalog seed has no genreGroups")
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	c := &Catalog{
		index:    index,
		books:    make(map[string]domain.Book, len(seed.Books)),
		taxonomy: append([]byte(nil), seed.GenreGroups...),
		perPage:  perPage,
		logger:   logger,
	}

	if err := c.indexBooks(seed.Books); err != nil {
		_ = index.Close()
		return nil, err
	}

	logger.Info("catalog loaded",
		"books", len(c.books),
		"per_page", perPage,
		"source", seedSource(opts.Path),
	)
	return c, nil
}

func seedSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

func (c *Catalog) indexBooks(seedBooks []SeedBook) error {
	batch := c.index.NewBatch()
	for _, sb := range seedBooks {
		if sb.ID == "" {
			return fmt.Errorf("catalog book %q has no id", sb.Title)
		}
		book := domain.Book{
			ID:             sb.ID,
			Title:          sb.Title,
			BooksGenreID:   sb.BooksGenreID,
			SmallImageURL:  sb.SmallImageURL,
			MediumImageURL: sb.MediumImageURL,
			LargeImageURL:  sb.LargeImageURL,
			ReviewCount:    sb.ReviewCount,
			ReviewAverage:  sb.ReviewAverage,
			Vocabulary:     sb.Vocabulary,
			Page:           sb.Page,
		}
		if err := batch.Index(book.ID, newBookDocument(book).toMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", book.ID, err)
		}
		c.books[book.ID] = book
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

// Shutdown closes the index.
func (c *Catalog) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Close()
}

// DocumentCount returns the number of indexed books.
func (c *Catalog) DocumentCount() (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.DocCount()
}

// CheckHealth reports whether the index still answers.
func (c *Catalog) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.DocumentCount()
	return err
}

// FetchTaxonomy returns a copy of the seed's genre groups payload.
func (c *Catalog) FetchTaxonomy(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), c.taxonomy...), nil
}

// SearchBooks runs q against the index. An empty title or the "" sentinel
// means no title filter; genre IDs match exactly; the page range is
// inclusive on both ends. Results are ordered by review average, then review
// count, then ID, and q.Page selects a page of PerPage books.
func (c *Catalog) SearchBooks(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	if q.Page < 0 {
		return nil, errors.Validationf("page must not be negative, got %d", q.Page)
	}
	if q.Page > (math.MaxInt-c.perPage)/c.perPage {
		return nil, errors.Validationf("page %d is out of range", q.Page)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildBooksQuery(q), c.perPage, q.Page*c.perPage, false)
	req.SortBy([]string{"-" + fieldReviewScore, "-" + fieldReviewCount, "_id"})

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	books := make([]domain.Book, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if b, ok := c.books[hit.ID]; ok {
			books = append(books, b)
		}
	}

	c.logger.Debug("catalog search",
		"title", q.TitleFilter,
		"genres", len(q.GenreIDFilter),
		"page", q.Page,
		"total", res.Total,
		"took", res.Took,
	)

	return &domain.SearchResult{
		Books: books,
		PageSet: domain.PageSet{
			BooksPerPage:  c.perPage,
			NowPage:       q.Page,
			TotalBooksNum: int(res.Total),
		},
	}, nil
}

// buildBooksQuery constructs the Bleve query for q.
func buildBooksQuery(q domain.SearchQuery) query.Query {
	var queries []query.Query

	if q.TitleFilter != "" && q.TitleFilter != bfquery.EmptyTitle {
		if term := wildcardTerm(q.TitleFilter); term != "" {
			wq := bleve.NewWildcardQuery("*" + term + "*")
			wq.SetField(fieldTitle)
			queries = append(queries, wq)
		}
	}

	if len(q.GenreIDFilter) > 0 {
		genreQueries := make([]query.Query, len(q.GenreIDFilter))
		for i, id := range q.GenreIDFilter {
			tq := bleve.NewTermQuery(id)
			tq.SetField(fieldGenreID)
			genreQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(genreQueries...))
	}

	minPage := float64(q.PageFrom)
	maxPage := float64(q.PageTo)
	inclusive := true
	pageQuery := bleve.NewNumericRangeInclusiveQuery(&minPage, &maxPage, &inclusive, &inclusive)
	pageQuery.SetField(fieldPage)
	queries = append(queries, pageQuery)

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
