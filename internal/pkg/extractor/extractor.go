package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/course-import/internal/entity"
)

const DefaultMaxCandidates = 5

// Extractor pulls course metadata and candidate images out of raw HTML.
type Extractor interface {
	Extract(html []byte, pageURL string) entity.ExtractedMetadata
}

type htmlExtractor struct {
	maxCandidates int
}

// NewExtractor caps candidates at maxCandidates, which can only lower DefaultMaxCandidates.
func NewExtractor(maxCandidates int) Extractor {
	if maxCandidates <= 0 || maxCandidates > DefaultMaxCandidates {
		maxCandidates = DefaultMaxCandidates
	}
	return &htmlExtractor{maxCandidates: maxCandidates}
}

// Extract never fails: missing fields come back as empty strings and an empty candidate list.
func (e *htmlExtractor) Extract(html []byte, pageURL string) entity.ExtractedMetadata {
	meta := entity.ExtractedMetadata{
		BaseURL:         pageURL,
		ImageCandidates: []string{},
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		logrus.WithFields(logrus.Fields{"url": pageURL, "error": err}).Warn("Failed to parse page html")
		return meta
	}

	meta.Title = firstNonEmpty(
		metaContent(doc, "meta[property='og:title']"),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	meta.Description = firstNonEmpty(
		metaContent(doc, "meta[property='og:description']"),
		metaContent(doc, "meta[name='description']"),
	)
	meta.ImageCandidates = e.candidates(doc)

	return meta
}

func (e *htmlExtractor) candidates(doc *goquery.Document) []string {
	list := make([]string, 0, e.maxCandidates)
	seen := make(map[string]struct{}, e.maxCandidates)

	add := func(src string) {
		if src == "" || len(list) >= e.maxCandidates {
			return
		}
		if _, ok := seen[src]; ok {
			return
		}
		seen[src] = struct{}{}
		list = append(list, src)
	}

	add(metaContent(doc, "meta[property='og:image']"))

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		add(strings.TrimSpace(s.AttrOr("src", "")))
	})

	return list
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
