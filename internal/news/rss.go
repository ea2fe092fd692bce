package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/stockdesk/pkg/models"
)

// DefaultRSSURL is the per-ticker headline feed. {ticker} is replaced with
// the query-escaped symbol.
const DefaultRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US"

const pubDateLayout = "2006-01-02 15:04:05"

// RSS reads articles from a per-ticker RSS or Atom feed.
type RSS struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewRSS creates a feed reader. An empty template uses DefaultRSSURL and a
// nil client uses http.DefaultClient.
func NewRSS(urlTemplate string, client *http.Client) *RSS {
	if urlTemplate == "" {
		urlTemplate = DefaultRSSURL
	}
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	return &RSS{urlTemplate: urlTemplate, parser: p}
}

// URL is the feed address for ticker.
func (r *RSS) URL(ticker string) string {
	return strings.ReplaceAll(r.urlTemplate, "{ticker}", url.QueryEscape(ticker))
}

// Articles parses the ticker's feed into articles, newest first as served.
func (r *RSS) Articles(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	feed, err := r.parser.ParseURLWithContext(r.URL(ticker), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", ticker, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(articles) == limit {
			break
		}
		articles = append(articles, Fill(models.NewsArticle{
			Title:        item.Title,
			Summary:      cleanHTML(item.Description),
			PubDate:      pubDate(item),
			Provider:     provider(feed, item),
			ThumbnailURL: thumbnail(item),
			URL:          item.Link,
		}))
	}
	return articles, nil
}

func pubDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(pubDateLayout)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(pubDateLayout)
	}
	return item.Published
}

func provider(feed *gofeed.Feed, item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	return feed.Title
}

// thumbnail prefers the item image, then an image enclosure, then the first
// <img> in the description.
func thumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return firstImage(item.Description)
}

func firstImage(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + html + "</body>"))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// cleanHTML strips markup and collapses whitespace.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
