package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/storage"
)

// Archive stores generated reports by filename.
type Archive struct {
	store storage.ObjectStorage
}

func NewArchive(store storage.ObjectStorage) *Archive {
	return &Archive{store: store}
}

func (a *Archive) Save(ctx context.Context, doc Document) error {
	if err := a.store.PutObject(ctx, doc.Filename, doc.Content); err != nil {
		return fmt.Errorf("archive report %s: %w", doc.Filename, err)
	}
	log.Info().Str("filename", doc.Filename).Int("bytes", len(doc.Content)).Msg("report: archived")
	return nil
}

// Latest returns the most recently archived report of the given type and
// format, by modification time and then by name.
func (a *Archive) Latest(ctx context.Context, t Type, f Format) (*Document, error) {
	objects, err := a.store.ListObjects(ctx, fmt.Sprintf("analytics_%s_", t))
	if err != nil {
		return nil, fmt.Errorf("list archived reports: %w", err)
	}

	suffix := "." + f.Extension()
	candidates := objects[:0]
	for _, o := range objects {
		if strings.HasSuffix(o.Key, suffix) {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.NotFound("No scheduled report available yet")
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].LastModified.Equal(candidates[j].LastModified) {
			return candidates[i].LastModified.After(candidates[j].LastModified)
		}
		return candidates[i].Key > candidates[j].Key
	})

	newest := candidates[0].Key
	content, err := a.store.GetObject(ctx, newest)
	if err != nil {
		return nil, fmt.Errorf("read archived report %s: %w", newest, err)
	}
	return &Document{Filename: newest, ContentType: f.ContentType(), Content: content}, nil
}
