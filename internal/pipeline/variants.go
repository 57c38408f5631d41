package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/metrics"
	"github.com/joseph-ayodele/optimo/internal/ocr"
)

// VariantProducer produces one OCR variant of a document.
type VariantProducer interface {
	Produce(ctx context.Context, job ocr.Job) (ocr.Document, error)
}

// mapVariants runs every variant of source with at most limit in flight and
// returns the documents in variant order. The first failure cancels the
// remaining variants and is returned; no partial result is produced.
func mapVariants(ctx context.Context, producer VariantProducer, source, workDir, lang string, variants []constants.Variant, limit int) ([]ocr.Document, error) {
	docs := make([]ocr.Document, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			start := time.Now()
			doc, err := producer.Produce(gctx, ocr.Job{
				Source:  source,
				WorkDir: workDir,
				Lang:    lang,
				Variant: v,
			})
			metrics.VariantDuration.WithLabelValues(string(v)).Observe(time.Since(start).Seconds())
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
