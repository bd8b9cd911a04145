// Package attachments materialises build request attachments, either
// by decoding inline data URIs or by fetching remote URLs.
package attachments

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// defaultMIMEType is assumed when a server declares no content type.
const defaultMIMEType = "application/octet-stream"

// dataURIPattern matches data:[<mediatype>][;base64],<data>.
var dataURIPattern = regexp.MustCompile(`(?s)^data:([^;]+)(;base64)?,(.+)$`)

// Ensure Resolver implements the attachment resolver port.
var _ driven.AttachmentResolver = (*Resolver)(nil)

// Resolver fetches and decodes attachment references.
type Resolver struct {
	httpClient *http.Client
}

// NewResolver creates a resolver. A nil client gets the default timeout.
func NewResolver(httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Resolver{httpClient: httpClient}
}

// Resolve materialises every reference, preserving order. A reference
// that cannot be fetched or decoded fails the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, refs []domain.AttachmentRef) ([]domain.Attachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	attachments := make([]domain.Attachment, 0, len(refs))
	for _, ref := range refs {
		attachment, err := r.resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", ref.Name, err)
		}
		attachments = append(attachments, *attachment)
	}

	return attachments, nil
}

func (r *Resolver) resolve(ctx context.Context, ref domain.AttachmentRef) (*domain.Attachment, error) {
	if strings.HasPrefix(ref.URL, "data:") {
		return parseDataURI(ref)
	}
	return r.fetch(ctx, ref)
}

// parseDataURI decodes an inline data URI.
func parseDataURI(ref domain.AttachmentRef) (*domain.Attachment, error) {
	match := dataURIPattern.FindStringSubmatch(ref.URL)
	if match == nil {
		return nil, errors.New("invalid data URI format")
	}

	mimeType := match[1]

	var content []byte
	if match[2] != "" {
		decoded, err := base64.StdEncoding.DecodeString(match[3])
		if err != nil {
			return nil, fmt.Errorf("decoding base64 data: %w", err)
		}
		content = decoded
	} else {
		content = []byte(match[3])
	}

	return &domain.Attachment{
		Name:     ref.Name,
		MIMEType: mimeType,
		Content:  content,
		Binary:   isBinary(mimeType),
	}, nil
}

// fetch downloads the attachment from a remote URL.
func (r *Resolver) fetch(ctx context.Context, ref domain.AttachmentRef) (*domain.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("attachment server returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMIMEType
	}

	return &domain.Attachment{
		Name:     ref.Name,
		MIMEType: mimeType,
		Content:  content,
		Binary:   isBinary(mimeType),
	}, nil
}

// isBinary reports whether content of this MIME type should be treated
// as binary. Anything outside text/* is, including JSON.
func isBinary(mimeType string) bool {
	return !strings.HasPrefix(mimeType, "text/")
}
