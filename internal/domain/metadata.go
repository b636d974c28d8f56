package domain

// ExtractMetadata is the structured record the extractor prints on stdout
// for each completed item. Every field consumed downstream is optional:
// the extractor omits fields freely depending on the source site, so
// nothing here may be assumed present.
type ExtractMetadata struct {
	ID             *string  `json:"id"`
	Title          *string  `json:"title"`
	Uploader       *string  `json:"uploader"`
	UploaderID     *string  `json:"uploader_id"`
	Extractor      *string  `json:"extractor"`
	ExtractorKey   *string  `json:"extractor_key"`
	Thumbnail      *string  `json:"thumbnail"`
	WebpageURL     *string  `json:"webpage_url"`
	OriginalURL    *string  `json:"original_url"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
	Filename       *string  `json:"filename"`
	LegacyFilename *string  `json:"_filename"`
	Ext            *string  `json:"ext"`
	Tags           []string `json:"tags"`
}

const unknownValue = "unknown"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PlatformName resolves the source platform name: the extractor key is
// preferred, then the generic extractor field, then "unknown".
func (m *ExtractMetadata) PlatformName() string {
	if v := deref(m.ExtractorKey); v != "" {
		return v
	}
	if v := deref(m.Extractor); v != "" {
		return v
	}
	return unknownValue
}

// OwnerID resolves the uploader identifier, falling back to the display
// name and then "unknown".
func (m *ExtractMetadata) OwnerID() string {
	if v := deref(m.UploaderID); v != "" {
		return v
	}
	if v := deref(m.Uploader); v != "" {
		return v
	}
	return unknownValue
}

// OwnerName resolves the uploader display name
func (m *ExtractMetadata) OwnerName() string {
	if v := deref(m.Uploader); v != "" {
		return v
	}
	return deref(m.UploaderID)
}

// ResolvedTitle returns the media title or "Untitled"
func (m *ExtractMetadata) ResolvedTitle() string {
	if v := deref(m.Title); v != "" {
		return v
	}
	return "Untitled"
}

// CanonicalURL prefers the webpage URL over the original request URL
func (m *ExtractMetadata) CanonicalURL() string {
	if v := deref(m.WebpageURL); v != "" {
		return v
	}
	return deref(m.OriginalURL)
}

// ResolvedFilesize returns the exact size when known, the approximate
// size otherwise, or nil
func (m *ExtractMetadata) ResolvedFilesize() *int64 {
	if m.Filesize != nil {
		return m.Filesize
	}
	return m.FilesizeApprox
}

// MediaFilePath returns the local path the extractor wrote the media to.
// Newer extractor versions emit "filename", older ones "_filename".
func (m *ExtractMetadata) MediaFilePath() string {
	if v := deref(m.Filename); v != "" {
		return v
	}
	return deref(m.LegacyFilename)
}

// ThumbnailURL returns the remote thumbnail URL, if any
func (m *ExtractMetadata) ThumbnailURL() string {
	return deref(m.Thumbnail)
}

// ExtractResult is the settled outcome of one extraction run
type ExtractResult struct {
	Metadata      *ExtractMetadata
	MediaFilePath string
	ThumbnailPath string
}
