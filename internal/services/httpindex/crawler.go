package httpindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"legalscan/internal/logging"
	"legalscan/internal/services"
)

// Link is one anchor found on a listing page.
type Link struct {
	Href string
	Text string
}

// Crawler walks directory listings below a root URL.
type Crawler struct {
	client *Client
	logger *slog.Logger
}

// NewCrawler builds a crawler that fetches listings through client.
func NewCrawler(client *Client, logger *slog.Logger) *Crawler {
	return &Crawler{
		client: client,
		logger: logging.NewComponentLogger(logger, "crawler"),
	}
}

// Crawl returns the absolute URL of every file link reachable from root, in
// discovery order. Listing fetch failures abort the crawl with services.ErrCrawl.
func (c *Crawler) Crawl(ctx context.Context, root string) ([]string, error) {
	base, err := url.Parse(ensureSlash(root))
	if err != nil {
		return nil, services.Wrap(services.ErrCrawl, "crawl", "parse root", root, err)
	}
	logger := logging.WithContext(ctx, c.logger)

	visited := map[string]struct{}{normalize(base): {}}
	seenFiles := map[string]struct{}{}
	queue := []*url.URL{base}
	var files []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := queue[0]
		queue = queue[1:]

		body, err := c.client.Fetch(ctx, page.String())
		if err != nil {
			return nil, services.Wrap(services.ErrCrawl, "crawl", "fetch index", page.String(), err)
		}
		links, err := ParseLinks(body)
		if err != nil {
			return nil, services.Wrap(services.ErrCrawl, "crawl", "parse index", page.String(), err)
		}
		logger.Debug("index fetched", logging.String("url", page.String()), logging.Int("links", len(links)))

		for _, link := range links {
			if isParent(link) {
				continue
			}
			ref, err := url.Parse(strings.TrimSpace(link.Href))
			if err != nil {
				logger.Debug("skipping malformed link", logging.String("href", link.Href), logging.Error(err))
				continue
			}
			if ref.Path == "" && ref.Host == "" {
				continue
			}
			target := page.ResolveReference(ref)
			target.RawQuery = ""
			target.Fragment = ""
			if !within(base, target) {
				logger.Debug("skipping link outside root", logging.String("url", target.String()))
				continue
			}
			if isDirectory(link) {
				dir := *target
				dir.Path = ensureSlash(dir.Path)
				dir.RawPath = ""
				key := normalize(&dir)
				if _, ok := visited[key]; ok {
					continue
				}
				visited[key] = struct{}{}
				queue = append(queue, &dir)
				continue
			}
			key := target.String()
			if _, ok := seenFiles[key]; ok {
				continue
			}
			seenFiles[key] = struct{}{}
			files = append(files, key)
		}
	}
	logger.Info("crawl complete",
		logging.String("root", base.String()),
		logging.Int("indexes", len(visited)),
		logging.Int("files", len(files)),
	)
	return files, nil
}

// ParseLinks extracts every anchor with an href attribute from a listing page.
func ParseLinks(body []byte) ([]Link, error) {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var (
		links   []Link
		current *Link
		text    strings.Builder
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return links, fmt.Errorf("tokenize: %w", err)
			}
			return links, nil
		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "href" {
					current = &Link{Href: string(val)}
					text.Reset()
				}
				if !more {
					break
				}
			}
		case html.TextToken:
			if current != nil {
				text.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "a" && current != nil {
				current.Text = strings.TrimSpace(text.String())
				links = append(links, *current)
				current = nil
			}
		}
	}
}

func isParent(link Link) bool {
	href := strings.TrimSpace(link.Href)
	return href == "../" || href == ".." || link.Text == "../" || strings.EqualFold(link.Text, "Parent Directory")
}

func isDirectory(link Link) bool {
	return strings.HasSuffix(strings.TrimSpace(link.Href), "/") || strings.HasSuffix(link.Text, "/")
}

func within(root, target *url.URL) bool {
	if !strings.EqualFold(root.Scheme, target.Scheme) || !strings.EqualFold(root.Host, target.Host) {
		return false
	}
	return strings.HasPrefix(target.Path, root.Path) && target.Path != strings.TrimSuffix(root.Path, "/")
}

func normalize(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + ensureSlash(u.Path)
}

func ensureSlash(value string) string {
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
