package catalog

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index field names.
const (
	fieldTitle       = "title"
	fieldGenreID     = "books_genre_id"
	fieldPage        = "page"
	fieldReviewScore = "review_score"
	fieldReviewCount = "review_count"
)

// buildIndexMapping creates the Bleve index mapping for catalog books.
//
//  1. Folded title as a single keyword term for substring (wildcard) matching
//  2. Exact keyword match on the genre ID
//  3. Numeric page count for inclusive range filters
//  4. Numeric review fields for ordering
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = keyword.Name
	titleFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldTitle, titleFieldMapping)

	genreFieldMapping := bleve.NewTextFieldMapping()
	genreFieldMapping.Analyzer = keyword.Name
	genreFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldGenreID, genreFieldMapping)

	pageFieldMapping := bleve.NewNumericFieldMapping()
	pageFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldPage, pageFieldMapping)

	scoreFieldMapping := bleve.NewNumericFieldMapping()
	scoreFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldReviewScore, scoreFieldMapping)

	countFieldMapping := bleve.NewNumericFieldMapping()
	countFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldReviewCount, countFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
