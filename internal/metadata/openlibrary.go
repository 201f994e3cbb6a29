package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultOpenLibraryURL = "https://openlibrary.org"
	userAgent             = "Bookshelf/1.0"
	coversBaseURL         = "https://covers.openlibrary.org"
	maxSubjects           = 10
)

var ErrNoMatch = errors.New("no matching book found")

// BookMetadata is what a provider knows about a book.
type BookMetadata struct {
	Title          string   `json:"title,omitempty"`
	Author         string   `json:"author,omitempty"`
	ISBN           string   `json:"isbn,omitempty"`
	CoverURL       string   `json:"cover,omitempty"`
	Year           int      `json:"year,omitempty"`
	Description    string   `json:"synopsis,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	PageCount      int      `json:"pages,omitempty"`
	OpenLibraryKey string   `json:"openLibraryKey,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewOpenLibraryClient creates a client allowing requestsPerSecond calls.
// OpenLibrary asks clients to stay around one request per second.
func NewOpenLibraryClient(baseURL string, requestsPerSecond float64) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultOpenLibraryURL
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// get fetches baseURL+path and decodes the JSON body into out.
func (c *OpenLibraryClient) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNoMatch, path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SearchByISBN looks up a book by its ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var book openLibraryBook
	if err := c.get(ctx, fmt.Sprintf("/isbn/%s.json", isbn), &book); err != nil {
		return nil, err
	}

	metadata := convertBook(&book, isbn)

	if len(book.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, book.Authors[0].Key); err == nil {
			metadata.Author = name
		}
	}
	return metadata, nil
}

// SearchByTitle searches by title and author and returns the best match.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	q := title
	if author != "" {
		q = title + " " + author
	}

	var result openLibrarySearchResult
	if err := c.get(ctx, "/search.json?limit=5&q="+url.QueryEscape(q), &result); err != nil {
		return nil, err
	}
	if len(result.Docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, title)
	}

	best := findBestMatch(result.Docs, title, author)
	metadata := convertSearchDoc(best)

	if metadata.ISBN == "" && best.CoverEditionKey != "" {
		var edition openLibraryEdition
		if err := c.get(ctx, fmt.Sprintf("/books/%s.json", best.CoverEditionKey), &edition); err == nil {
			mergeEdition(metadata, &edition)
		}
	}
	return metadata, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}
	var author struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, authorKey+".json", &author); err != nil {
		return "", err
	}
	return author.Name, nil
}

// findBestMatch scores candidates on title and author similarity, with a
// small bonus for docs that carry an ISBN or a cover.
func findBestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	best := &docs[0]
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		docTitle := strings.ToLower(doc.Title)
		switch {
		case docTitle == titleLower:
			score += 10
		case strings.Contains(docTitle, titleLower):
			score += 5
		}

		if author != "" {
			for _, name := range doc.AuthorName {
				name = strings.ToLower(name)
				if name == authorLower {
					score += 10
					break
				}
				if strings.Contains(name, authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}
		if doc.CoverI != 0 {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = doc
		}
	}
	return best
}

func isbnCoverURL(isbn string) string {
	return fmt.Sprintf("%s/b/isbn/%s-L.jpg", coversBaseURL, isbn)
}

func convertBook(book *openLibraryBook, isbn string) *BookMetadata {
	metadata := &BookMetadata{
		Title:          book.Title,
		ISBN:           isbn,
		CoverURL:       isbnCoverURL(isbn),
		OpenLibraryKey: book.Key,
		PageCount:      book.NumberOfPages,
		Year:           extractYear(book.PublishDate),
		Subjects:       limitSubjects(book.Subjects),
	}

	switch v := book.Description.(type) {
	case string:
		metadata.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			metadata.Description = val
		}
	}
	return metadata
}

func convertSearchDoc(doc *openLibrarySearchDoc) *BookMetadata {
	metadata := &BookMetadata{
		Title:          doc.Title,
		Year:           doc.FirstPublishYear,
		PageCount:      doc.NumberOfPagesMedian,
		Subjects:       limitSubjects(doc.Subject),
		OpenLibraryKey: doc.Key,
	}
	if len(doc.AuthorName) > 0 {
		metadata.Author = doc.AuthorName[0]
	}

	if len(doc.ISBN) > 0 {
		metadata.ISBN = doc.ISBN[0]
		metadata.CoverURL = isbnCoverURL(doc.ISBN[0])
	} else if doc.CoverI != 0 {
		metadata.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", coversBaseURL, doc.CoverI)
	}
	return metadata
}

// mergeEdition fills gaps in metadata from an edition record, preferring
// ISBN-13 over ISBN-10.
func mergeEdition(metadata *BookMetadata, edition *openLibraryEdition) {
	if metadata.ISBN == "" {
		if len(edition.ISBN13) > 0 {
			metadata.ISBN = edition.ISBN13[0]
		} else if len(edition.ISBN10) > 0 {
			metadata.ISBN = edition.ISBN10[0]
		}
	}
	if metadata.ISBN != "" && metadata.CoverURL == "" {
		metadata.CoverURL = isbnCoverURL(metadata.ISBN)
	}
	if metadata.PageCount == 0 {
		metadata.PageCount = edition.NumberOfPages
	}
	if metadata.Year == 0 {
		metadata.Year = extractYear(edition.PublishDate)
	}
}

func limitSubjects(subjects []string) []string {
	if len(subjects) > maxSubjects {
		return subjects[:maxSubjects]
	}
	return subjects
}

// normalizeISBN strips separators and returns "" unless 10 or 13 characters
// remain.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear pulls a year out of OpenLibrary's free-form publish dates.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	for i := 0; i <= len(dateStr)-4; i++ {
		var year int
		if _, err := fmt.Sscanf(dateStr[i:i+4], "%4d", &year); err == nil && year > 1000 && year < 3000 {
			return year
		}
	}
	return 0
}

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // string or {type, value}
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	CoverEditionKey     string   `json:"cover_edition_key"`
	Subject             []string `json:"subject"`
}

type openLibraryEdition struct {
	Key           string   `json:"key"`
	PublishDate   string   `json:"publish_date"`
	ISBN10        []string `json:"isbn_10"`
	ISBN13        []string `json:"isbn_13"`
	NumberOfPages int      `json:"number_of_pages"`
}
