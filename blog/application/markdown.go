package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	maxSnippetLength    = 200
	defaultSummaryLines = 3
	defaultCacheSize    = 256
	defaultUploadURL    = "/uploads"
)

const (
	modeFull    = "full"
	modeSummary = "summary"
)

var (
	headingIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
	codeClassPattern = regexp.MustCompile(`^language-[a-zA-Z0-9_+\-]+$`)
	checkboxPattern  = regexp.MustCompile(`^checkbox$`)
)

// MarkdownRenderer turns post markdown into HTML that is safe to embed in a page
type MarkdownRenderer interface {
	// Render returns the sanitized HTML of the whole document
	Render(markdown string) (string, error)

	// RenderSummary returns the sanitized HTML of the first few source lines
	RenderSummary(markdown string) (string, error)

	// Snippet returns a plain-text excerpt of the first paragraph
	Snippet(markdown string) string
}

type RendererConfig struct {
	// UploadBaseURL prefixes relative image destinations
	UploadBaseURL string
	SummaryLines  int
	CacheSize     int
}

// relativeImageTransformer points relative image destinations at the upload directory
type relativeImageTransformer struct {
	baseURL string
}

func (t *relativeImageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isRelativeLink(dest) {
			img.Destination = []byte(t.baseURL + "/" + path.Base(dest))
		}

		return ast.WalkContinue, nil
	})
}

// isRelativeLink reports whether dest is relative to the document.
// Site-absolute paths, protocol-relative URLs and anything with a scheme are left alone.
func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
		return false
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

type MarkdownRendererImpl struct {
	md           goldmark.Markdown
	policy       *bluemonday.Policy
	plain        *bluemonday.Policy
	cache        *lru.Cache[string, string]
	summaryLines int
}

func NewMarkdownRenderer(cfg RendererConfig) (*MarkdownRendererImpl, error) {
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = defaultUploadURL
	}
	if cfg.SummaryLines <= 0 {
		cfg.SummaryLines = defaultSummaryLines
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeImageTransformer{baseURL: strings.TrimSuffix(cfg.UploadBaseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
			// raw HTML is passed through and removed by the sanitizer
			gmhtml.WithUnsafe(),
		),
	)

	return &MarkdownRendererImpl{
		md:           md,
		policy:       newContentPolicy(),
		plain:        bluemonday.StrictPolicy(),
		cache:        cache,
		summaryLines: cfg.SummaryLines,
	}, nil
}

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").Matching(headingIDPattern).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(codeClassPattern).OnElements("code")
	p.AllowAttrs("type").Matching(checkboxPattern).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

func (r *MarkdownRendererImpl) Render(markdown string) (string, error) {
	return r.cached(modeFull, markdown)
}

// RenderSummary keeps the first summaryLines lines of source before rendering,
// so the result always goes through the sanitizer.
func (r *MarkdownRendererImpl) RenderSummary(markdown string) (string, error) {
	return r.cached(modeSummary, firstLines(markdown, r.summaryLines))
}

func (r *MarkdownRendererImpl) Snippet(markdown string) string {
	paragraph := extractSnippet([]byte(markdown))
	if paragraph == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(paragraph), &buf); err != nil {
		return truncateSnippet(paragraph)
	}

	plain := html.UnescapeString(r.plain.Sanitize(buf.String()))
	return truncateSnippet(strings.Join(strings.Fields(plain), " "))
}

func (r *MarkdownRendererImpl) cached(mode, markdown string) (string, error) {
	key := cacheKey(mode, markdown)
	if out, ok := r.cache.Get(key); ok {
		return out, nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	out := r.policy.Sanitize(buf.String())
	r.cache.Add(key, out)
	return out, nil
}

func cacheKey(mode, markdown string) string {
	sum := sha256.Sum256([]byte(mode + "\x00" + markdown))
	return hex.EncodeToString(sum[:])
}

// firstLines returns at most n lines of s
func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// extractSnippet returns the markdown of the first paragraph, skipping headings
func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables, raw html
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, "<") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	return strings.Join(paragraphLines, " ")
}

// truncateSnippet cuts s to maxSnippetLength bytes on a word boundary
func truncateSnippet(s string) string {
	if len(s) <= maxSnippetLength {
		return s
	}

	cut := s[:maxSnippetLength]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if lastSpace := strings.LastIndexAny(cut, " \t"); lastSpace > 0 {
		cut = cut[:lastSpace]
	}

	return cut + "..."
}
