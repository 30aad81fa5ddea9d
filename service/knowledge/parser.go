package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// Parser extracts plain text from a source document
type Parser interface {
	Parse(ctx context.Context, data []byte) (string, error)
}

// ParserFunc adapts a function to Parser
type ParserFunc func(ctx context.Context, data []byte) (string, error)

// Parse calls fn
func (fn ParserFunc) Parse(ctx context.Context, data []byte) (string, error) {
	return fn(ctx, data)
}

// maxSheetCells limits extracted cells per spreadsheet sheet
const maxSheetCells = 1000

// DefaultParsers returns the parsers keyed by lower case extension
func DefaultParsers() map[string]Parser {
	text := ParserFunc(parseText)
	return map[string]Parser{
		".md":       text,
		".markdown": text,
		".txt":      text,
		".pdf":      ParserFunc(parsePDF),
		".docx":     ParserFunc(parseDocx),
		".xlsx":     ParserFunc(parseXlsx),
	}
}

// Extension returns the lower case extension of a source URL
func Extension(URL string) string {
	return strings.ToLower(path.Ext(URL))
}

func parseText(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}

func parsePDF(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}
	var parts []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err = ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract pdf page %d: %w", pageNum, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

var (
	docxParagraph = regexp.MustCompile(`</w:p>`)
	docxTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

func parseDocx(_ context.Context, data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()
	return docxText(doc.Editable().GetContent()), nil
}

// docxText strips WordprocessingML markup, one paragraph per block
func docxText(content string) string {
	content = docxParagraph.ReplaceAllString(content, "\n\n")
	content = docxTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = blankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func parseXlsx(ctx context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse xlsx: %w", err)
	}
	defer f.Close()
	var parts []string
	for _, sheet := range f.GetSheetList() {
		if err = ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %v: %w", sheet, err)
		}
		var lines []string
		cells := 0
		for _, row := range rows {
			var values []string
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					values = append(values, cell)
				}
			}
			if len(values) == 0 {
				continue
			}
			if cells += len(values); cells > maxSheetCells {
				break
			}
			lines = append(lines, strings.Join(values, " | "))
		}
		if len(lines) > 0 {
			parts = append(parts, "Sheet "+sheet+"\n"+strings.Join(lines, "\n"))
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
