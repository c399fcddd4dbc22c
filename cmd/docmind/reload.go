package main

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type indexReloader interface {
	Reload(ctx context.Context) (int, error)
}

// reloadOnSignal rebuilds the lexical index from the document store each time
// a signal arrives on sig, until ctx is done. Documents ingested by another
// process (docmind ingest) become lexically searchable after a reload.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, r indexReloader, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			n, err := r.Reload(ctx)
			if err != nil {
				logger.Error("Lexical index reload failed", zap.Error(err))
				continue
			}
			logger.Info("Lexical index reloaded", zap.Int("chunks", n))
		}
	}
}
