// Package docextract turns downloaded document bytes into plain text.
//
// PDFs are read page by page with github.com/ledongthuc/pdf. Word documents
// (DOCX) are parsed with github.com/fumiama/go-docx, one line per paragraph.
package docextract
