package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxPageBytes bounds how much of a linked page is read
const maxPageBytes = 2 << 20

// Page is what the collector can learn about an item from its linked page
type Page struct {
	Title       string
	Description string
	Author      string
	SiteName    string
	Language    string
	PublishedAt *time.Time
	Text        string
}

// Extractor fetches linked pages to fill in items whose feed entry carries no
// body.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

// NewExtractor creates a new page extractor
func NewExtractor(userAgent string) *Extractor {
	if userAgent == "" {
		userAgent = "osint-stories/1.0"
	}
	return &Extractor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Extract fetches pageURL and reads its head metadata and body text
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return ParsePage(io.LimitReader(resp.Body, maxPageBytes))
}

// ParsePage reads page metadata from an HTML document. Open Graph values win
// over plain meta tags, which win over <title>.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{}
	meta := make(map[string]string)
	var title string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				page.Language = attr(n, "lang")
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
			case "meta":
				key := attr(n, "property")
				if key == "" {
					key = attr(n, "name")
				}
				key = strings.ToLower(key)
				if content := attr(n, "content"); key != "" && content != "" {
					if _, seen := meta[key]; !seen {
						meta[key] = content
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Title = first(meta["og:title"], title)
	page.Description = first(meta["og:description"], meta["description"])
	page.Author = first(meta["author"], meta["article:author"])
	page.SiteName = meta["og:site_name"]

	for _, key := range []string{"article:published_time", "article:published"} {
		if value, ok := meta[key]; ok {
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				page.PublishedAt = &t
				break
			}
		}
	}

	if body := findElement(doc, "body"); body != nil {
		page.Text = collapse(nodeText(body))
	}
	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
