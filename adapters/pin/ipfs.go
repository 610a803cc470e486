// Package pin replicates encrypted blobs to content-addressed storage.
package pin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/blockvault/blockvault/ports"
)

var (
	_ ports.Pinner = (*IPFSPinner)(nil)
	_ ports.Pinner = NoopPinner{}
)

// IPFSPinner implements ports.Pinner against an IPFS node API.
type IPFSPinner struct {
	shell      *shell.Shell
	gatewayURL string
	log        *slog.Logger
}

// NewIPFSPinner connects to the IPFS API at apiAddr (host:port or URL).
// gatewayURL is the public gateway base used for retrieval links; empty
// disables link generation.
func NewIPFSPinner(apiAddr, gatewayURL string, log *slog.Logger) *IPFSPinner {
	return &IPFSPinner{
		shell:      shell.NewShell(apiAddr),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		log:        log,
	}
}

// Add uploads and pins the file at path, returning its content ID.
func (p *IPFSPinner) Add(ctx context.Context, path string) (string, error) {
	if !p.shell.IsUp() {
		return "", fmt.Errorf("ipfs node unavailable")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	cid, err := p.shell.Add(f, shell.Pin(true))
	if err != nil {
		return "", fmt.Errorf("failed to add to ipfs: %w", err)
	}
	p.log.Debug("pinned blob to ipfs", slog.String("cid", cid), slog.String("path", path))
	return cid, nil
}

// Fetch writes the content identified by cid to outPath.
func (p *IPFSPinner) Fetch(ctx context.Context, cid, outPath string) error {
	reader, err := p.shell.Cat(cid)
	if err != nil {
		return fmt.Errorf("failed to fetch from ipfs: %w", err)
	}
	defer reader.Close()

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("failed to write ipfs content: %w", err)
	}
	return nil
}

// Unpin releases the pin for cid.
func (p *IPFSPinner) Unpin(ctx context.Context, cid string) error {
	if err := p.shell.Unpin(cid); err != nil {
		return fmt.Errorf("failed to unpin: %w", err)
	}
	return nil
}

// GatewayURL returns a public retrieval URL for cid.
func (p *IPFSPinner) GatewayURL(cid string) string {
	if p.gatewayURL == "" || cid == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", p.gatewayURL, cid)
}

// NoopPinner satisfies ports.Pinner when content-addressed storage is
// disabled. Add reports an error the caller logs and ignores.
type NoopPinner struct{}

func (NoopPinner) Add(ctx context.Context, path string) (string, error) {
	return "", fmt.Errorf("content-addressed storage disabled")
}

func (NoopPinner) Fetch(ctx context.Context, cid, outPath string) error {
	return fmt.Errorf("content-addressed storage disabled")
}

func (NoopPinner) Unpin(ctx context.Context, cid string) error { return nil }

func (NoopPinner) GatewayURL(cid string) string { return "" }
