package docextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// DocxText returns the text of every paragraph in the document body joined
// with newlines. Tabs and line breaks inside a paragraph are kept. Table
// rows become one line each with cells separated by tabs.
func DocxText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a Word document: %w", err)
	}
	// Set only when word/document.xml was decoded.
	if doc.Document.XMLName.Local != "document" {
		return "", errors.New("not a Word document: missing word/document.xml")
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, it.String())
		case *docx.Table:
			lines = append(lines, tableLines(it)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func tableLines(t *docx.Table) []string {
	lines := make([]string, 0, len(t.TableRows))
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			paras := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				paras = append(paras, p.String())
			}
			cells = append(cells, strings.Join(paras, " "))
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return lines
}
