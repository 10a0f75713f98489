package source

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"legalscan/internal/logging"
	"legalscan/internal/services"
	"legalscan/internal/services/httpindex"
)

// HTTP resolves resources by crawling a directory listing.
type HTTP struct {
	root    string
	client  *httpindex.Client
	crawler *httpindex.Crawler
	logger  *slog.Logger
}

// NewHTTP builds an HTTP source rooted at the staging URL.
func NewHTTP(root string, client *httpindex.Client, logger *slog.Logger) *HTTP {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return &HTTP{
		root:    root,
		client:  client,
		crawler: httpindex.NewCrawler(client, logger),
		logger:  logging.NewComponentLogger(logger, "source"),
	}
}

// Resolve crawls the staging listing and keeps archive links.
func (s *HTTP) Resolve(ctx context.Context) ([]Resource, error) {
	urls, err := s.crawler.Crawl(ctx, s.root)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "parse staging url", s.root, err)
	}
	logger := logging.WithContext(ctx, s.logger)
	resources := make([]Resource, 0, len(urls))
	for _, raw := range urls {
		target, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if !IsArchive(target.Path) {
			continue
		}
		rel := path.Clean(strings.TrimPrefix(target.Path, base.Path))
		resources = append(resources, Resource{Location: raw, RelPath: rel, Remote: true})
	}
	logger.Info("resources resolved",
		logging.String("staging", s.root),
		logging.Int("links", len(urls)),
		logging.Int("archives", len(resources)),
	)
	return resources, nil
}

// Open starts the download of r.
func (s *HTTP) Open(ctx context.Context, r Resource) (io.ReadCloser, error) {
	body, err := s.client.Open(ctx, r.Location)
	if err != nil {
		return nil, services.Wrap(services.ErrMirror, "mirror", "download", describe(r), err)
	}
	return body, nil
}

// Length reads Content-Length via HEAD; -1 when the server omits it.
func (s *HTTP) Length(ctx context.Context, r Resource) (int64, error) {
	length, err := s.client.ContentLength(ctx, r.Location)
	if err != nil {
		return -1, services.Wrap(services.ErrMirror, "mirror", "head", describe(r), err)
	}
	return length, nil
}
