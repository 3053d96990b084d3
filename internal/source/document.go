package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Document is one discovered input file
type Document struct {
	Path string
	Name string
}

// DiscoverDocuments lists the analyzable files in a directory, sorted by
// name. Recognized extensions: .pdf, .txt, .html, .htm.
func DiscoverDocuments(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt", ".html", ".htm":
			docs = append(docs, Document{
				Path: filepath.Join(dir, entry.Name()),
				Name: entry.Name(),
			})
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// ExtractText loads a document's plain text based on its extension
func ExtractText(doc Document) (string, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return extractPDFText(doc.Path)
	case ".html", ".htm":
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", doc.Path, err)
		}
		return ExtractHTMLText(string(data))
	default:
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", doc.Path, err)
		}
		return string(data), nil
	}
}

// extractPDFText pulls the plain text stream out of a PDF
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return buf.String(), nil
}

// ExtractHTMLText extracts the visible text from an HTML document, skipping
// scripts, styles and frames.
func ExtractHTMLText(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
