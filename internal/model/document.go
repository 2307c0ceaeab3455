package model

// Document is one retrieved contract passage. Metadata identifies the
// source contract so the resolver can report which contract a price
// came from.
type Document struct {
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Source returns the source identifier from the document metadata, or
// the empty string when none was recorded.
func (d Document) Source() string {
	return d.Metadata["source"]
}
