// Package knowledge loads knowledge sources (markdown, text, pdf, docx, xlsx)
// and retrieves the chunks relevant to an agent prompt.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default number of sources loaded concurrently
const DefaultConcurrency = 4

// Document is a parsed knowledge source
type Document struct {
	URL     string
	Name    string
	Content string
}

// Loader reads knowledge sources through afs
type Loader struct {
	fs          afs.Service
	parsers     map[string]Parser
	concurrency int
	logger      *slog.Logger
}

// Option customises the loader
type Option func(l *Loader)

// WithFS sets the afs service
func WithFS(fs afs.Service) Option {
	return func(l *Loader) { l.fs = fs }
}

// WithParser registers parser for a lower case extension, e.g. ".csv"
func WithParser(ext string, parser Parser) Option {
	return func(l *Loader) { l.parsers[ext] = parser }
}

// WithConcurrency sets the number of sources loaded concurrently
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader
func NewLoader(opts ...Option) *Loader {
	ret := &Loader{parsers: DefaultParsers(), concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// Supports returns true when URL has a registered parser
func (l *Loader) Supports(URL string) bool {
	_, ok := l.parsers[Extension(URL)]
	return ok
}

// Load reads and parses URLs concurrently; folder URLs contribute every
// supported file they contain. Documents are returned sorted by URL.
func (l *Loader) Load(ctx context.Context, URLs ...string) ([]*Document, error) {
	sources, err := l.expand(ctx, URLs)
	if err != nil {
		return nil, err
	}
	ret := make([]*Document, len(sources))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(l.concurrency)
	for i, source := range sources {
		group.Go(func() error {
			doc, err := l.load(gctx, source)
			if err != nil {
				return err
			}
			ret[i] = doc
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].URL < ret[j].URL })
	return ret, nil
}

func (l *Loader) expand(ctx context.Context, URLs []string) ([]string, error) {
	var ret []string
	for _, URL := range URLs {
		object, err := l.fs.Object(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("knowledge source %v not found: %w", URL, err)
		}
		if !object.IsDir() {
			if !l.Supports(URL) {
				return nil, fmt.Errorf("unsupported knowledge source: %v", URL)
			}
			ret = append(ret, URL)
			continue
		}
		objects, err := l.fs.List(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to list knowledge folder %v: %w", URL, err)
		}
		for _, candidate := range objects {
			if candidate.IsDir() || url.Equals(candidate.URL(), URL) {
				continue
			}
			if !l.Supports(candidate.Name()) {
				l.logger.Debug("skipping unsupported knowledge source", "url", candidate.URL())
				continue
			}
			ret = append(ret, candidate.URL())
		}
	}
	return ret, nil
}

func (l *Loader) load(ctx context.Context, URL string) (*Document, error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge source %v: %w", URL, err)
	}
	content, err := l.parsers[Extension(URL)].Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse knowledge source %v: %w", URL, err)
	}
	_, name := url.Split(URL, "file")
	l.logger.Debug("knowledge source loaded", "url", URL, "chars", len(content))
	return &Document{URL: URL, Name: name, Content: content}, nil
}
