package ports

import "context"

// Pinner replicates encrypted blobs to content-addressed storage. All calls
// are best-effort side calls: callers log failures and carry on, and no core
// outcome may depend on a Pinner result.
type Pinner interface {
	// Add uploads and pins the file at path, returning its content ID.
	Add(ctx context.Context, path string) (string, error)

	// Fetch writes the content identified by cid to outPath.
	Fetch(ctx context.Context, cid, outPath string) error

	// Unpin releases the pin for cid.
	Unpin(ctx context.Context, cid string) error

	// GatewayURL returns a public retrieval URL for cid, or empty.
	GatewayURL(cid string) string
}
