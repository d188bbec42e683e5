package services

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/ports"
)

const (
	ContentTypePlain = "text/plain"
	ContentTypeHTML  = "text/html; charset=UTF-8"
)

type renderFunc func(content []byte) ([]byte, error)

type renderEntry struct {
	contentType string
	render      renderFunc
}

// RenderService turns stored document bytes into response bodies
type RenderService struct {
	markdown goldmark.Markdown
	table    map[entities.DocumentKind]renderEntry
	logger   *logger.Logger
}

// NewRenderService creates a renderer with GFM markdown. Raw HTML in markdown
// sources is passed through unescaped.
func NewRenderService(logger *logger.Logger) *RenderService {
	s := &RenderService{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		logger: logger.WithComponent("render"),
	}

	s.table = map[entities.DocumentKind]renderEntry{
		entities.DocumentKindPlaintext: {contentType: ContentTypePlain, render: renderPlain},
		entities.DocumentKindMarkdown:  {contentType: ContentTypeHTML, render: s.renderMarkdown},
	}
	return s
}

var _ ports.Renderer = (*RenderService)(nil)

// Render converts content according to kind
func (s *RenderService) Render(content []byte, kind entities.DocumentKind) ([]byte, string, error) {
	entry, ok := s.table[kind]
	if !ok {
		return nil, "", fmt.Errorf("no renderer for document kind %q", kind)
	}

	body, err := entry.render(content)
	if err != nil {
		return nil, "", err
	}
	return body, entry.contentType, nil
}

func renderPlain(content []byte) ([]byte, error) {
	return content, nil
}

func (s *RenderService) renderMarkdown(content []byte) ([]byte, error) {
	source := s.stripFrontMatter(content)

	var buf bytes.Buffer
	if err := s.markdown.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// stripFrontMatter drops a leading YAML front matter block. Documents with
// malformed front matter are rendered as written.
func (s *RenderService) stripFrontMatter(content []byte) []byte {
	var meta map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	if err != nil {
		s.logger.Debugw("Front matter ignored", "error", err)
		return content
	}
	return body
}
