package cmis

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Rendition describes an alternative representation of a document's
// content, such as a thumbnail or a PDF preview.
type Rendition struct {
	StreamID            string `mapstructure:"streamId"`
	MimeType            string `mapstructure:"mimeType"`
	Length              int64  `mapstructure:"length"`
	Title               string `mapstructure:"title"`
	Kind                string `mapstructure:"kind"`
	Height              int64  `mapstructure:"height"`
	Width               int64  `mapstructure:"width"`
	RenditionDocumentID string `mapstructure:"renditionDocumentId"`
}

func parseRendition(data map[string]any) (Rendition, error) {
	var r Rendition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Rendition{}, err
	}
	if err := decoder.Decode(data); err != nil {
		return Rendition{}, fmt.Errorf("decoding rendition: %w", err)
	}
	return r, nil
}
