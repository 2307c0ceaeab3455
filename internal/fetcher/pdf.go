package fetcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// PDFText extracts the plain text of a PDF, pages joined by blank
// lines. Extraction quality is whatever the document's text layer
// gives; scanned documents with no text layer come back empty.
func PDFText(path string) (text string, err error) {
	// The pdf library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pdf: reader panic on %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "pdf: open %s", path)
	}
	defer f.Close()

	if reader.NumPage() == 0 {
		return "", eris.Errorf("pdf: %s has no pages", path)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := pageText(page)
		if pageErr != nil {
			continue
		}
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}

	if len(pages) == 0 {
		// Fall back to whole-document extraction.
		r, rErr := reader.GetPlainText()
		if rErr != nil {
			return "", eris.Wrapf(rErr, "pdf: extract text from %s", path)
		}
		data, rErr := io.ReadAll(r)
		if rErr != nil {
			return "", eris.Wrapf(rErr, "pdf: read text from %s", path)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return strings.Join(pages, "\n\n"), nil
}

// PDFPages extracts the text of a PDF page by page. Pages with no
// extractable text are dropped; page numbering of the returned slice is
// not guaranteed to match the document.
func PDFPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pdf: reader panic on %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pdf: open %s", path)
	}
	defer f.Close()

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := pageText(page)
		if pageErr != nil || text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, eris.Errorf("pdf: %s has no extractable text", path)
	}
	return pages, nil
}

func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			fmt.Fprintln(&b, line)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
