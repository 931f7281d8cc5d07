package export

import (
	"context"
	"fmt"
)

// Service generates export artifacts. uploader may be nil, in which case
// artifacts are returned inline only.
type Service struct {
	uploader *Uploader
}

func NewService(uploader *Uploader) *Service {
	return &Service{uploader: uploader}
}

// Export produces the artifact for the request and uploads it when object
// storage is configured. Upload failures do not fail the export; the
// artifact is still returned inline.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	var result *Result
	var err error

	switch req.Format {
	case FormatHTML:
		result = &Result{
			Data:     []byte(req.HTML),
			Filename: sanitizeFilename(req.DeckName) + ".html",
			MimeType: "text/html; charset=utf-8",
		}
	case FormatPDF:
		result, err = exportPDF(ctx, req.HTML, req.DeckName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}

	if s.uploader != nil {
		url, uploadErr := s.uploader.Upload(ctx, result)
		if uploadErr == nil {
			result.URL = url
		}
	}
	return result, nil
}

// sanitizeFilename creates a safe filename from a deck name.
func sanitizeFilename(name string) string {
	result := ""
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result += string(r)
		case r == ' ':
			result += "-"
		case r == '-', r == '_':
			result += string(r)
		}
	}

	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "deck"
	}
	return result
}
