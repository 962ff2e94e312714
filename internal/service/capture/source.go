package capture

import "context"

// Source produces one still image per request. RequestCapture writes the
// image to destination, or to a path of its own choosing, and returns the
// path that holds the result.
type Source interface {
	RequestCapture(ctx context.Context, destination string) (string, error)
}
