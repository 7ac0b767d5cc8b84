package standards

import (
	"time"
)

// BuildScope runs extraction and deduplication over a certificate document
// and attaches the certificate metadata found in the same text.
func BuildScope(doc Document, extractor *Extractor, dedup *Deduplicator, extractedAt time.Time) AccreditationScope {
	return AccreditationScope{
		Certificate: ParseCertificateInfo(doc.Text),
		Standards:   dedup.Run(extractor.Run(doc)),
		ExtractedAt: extractedAt.UTC(),
		Source:      doc.Source,
	}
}
