package mediaserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/baldr/internal/mediaserver/rest"
)

const detectTimeout = 10 * time.Second

// ProbeServer checks that a media server answers at serverURL and returns
// the number of assets it serves.
func ProbeServer(ctx context.Context, serverURL string, logger *slog.Logger) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	n, err := rest.NewClient(serverURL, detectTimeout, logger).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("media server at %s is not usable: %w", serverURL, err)
	}
	return n, nil
}
