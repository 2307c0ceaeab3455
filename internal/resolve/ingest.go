package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/fetcher"
	"github.com/sells-group/recon-cli/pkg/chroma"
)

// IngestContract loads a contract PDF page by page into the named
// Chroma collection and returns how many passages were stored. Each
// page becomes one passage carrying the contract file name as its
// source, which is what the price resolver reports back as the
// contract name.
func IngestContract(ctx context.Context, client chroma.Client, collection, contractPath string) (int, error) {
	pages, err := fetcher.PDFPages(contractPath)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: load %s", contractPath)
	}

	id, err := client.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open collection %s", collection)
	}

	source := filepath.Base(contractPath)
	passages := make([]chroma.Passage, 0, len(pages))
	for i, page := range pages {
		passages = append(passages, chroma.Passage{
			ID:      fmt.Sprintf("%s-%d", uuid.NewString(), i),
			Content: page,
			Metadata: map[string]string{
				"source": source,
				"page":   strconv.Itoa(i),
			},
		})
	}

	if err := client.Add(ctx, id, passages); err != nil {
		return 0, eris.Wrapf(err, "ingest: add passages from %s", source)
	}

	zap.L().Named("ingest").Info("ingested contract",
		zap.String("contract", source),
		zap.Int("passages", len(passages)))
	return len(passages), nil
}
