package resolve

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/pkg/chroma"
)

// ChromaRetriever adapts a Chroma collection to the Retriever interface.
type ChromaRetriever struct {
	client       chroma.Client
	collectionID string
}

// NewChromaRetriever opens (or creates) the named collection and
// returns a retriever over it.
func NewChromaRetriever(ctx context.Context, client chroma.Client, collection string) (*ChromaRetriever, error) {
	id, err := client.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: open collection %s", collection)
	}
	return &ChromaRetriever{client: client, collectionID: id}, nil
}

// Retrieve returns the topK passages ranked against the query.
func (r *ChromaRetriever) Retrieve(ctx context.Context, query string, topK int) ([]model.Document, error) {
	passages, err := r.client.Query(ctx, r.collectionID, query, topK)
	if err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(passages))
	for _, p := range passages {
		docs = append(docs, model.Document{
			PageContent: p.Content,
			Metadata:    p.Metadata,
		})
	}
	return docs, nil
}
