package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/lvcoi/ytbatch/internal/db"
)

const catalogPage = 200

// CatalogLister pages through recorded artifacts. *db.DB satisfies it.
type CatalogLister interface {
	ListArtifacts(ctx context.Context, kind string, limit, offset int) ([]db.ArtifactRecord, error)
}

// ListCatalog writes every recorded artifact to w, newest first, as a
// table or as one JSON object per line. It returns the number written.
func ListCatalog(ctx context.Context, w io.Writer, lister CatalogLister, jsonOut bool) (int, error) {
	var (
		enc   *json.Encoder
		table *tabwriter.Writer
	)
	if jsonOut {
		enc = json.NewEncoder(w)
	} else {
		table = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(table, "KIND\tSTATE\tSIZE\tUPDATED\tPATH")
	}

	total := 0
	for offset := 0; ; offset += catalogPage {
		page, err := lister.ListArtifacts(ctx, "", catalogPage, offset)
		if err != nil {
			return total, fmt.Errorf("list catalog: %w", err)
		}
		for _, rec := range page {
			if enc != nil {
				if err := enc.Encode(rec); err != nil {
					return total, err
				}
			} else {
				fmt.Fprintf(table, "%s\t%s\t%d\t%s\t%s\n", rec.Kind, rec.State, rec.FileSize, rec.UpdatedAt.Format(time.DateTime), rec.FilePath)
			}
			total++
		}
		if len(page) < catalogPage {
			break
		}
	}
	if table != nil {
		return total, table.Flush()
	}
	return total, nil
}
