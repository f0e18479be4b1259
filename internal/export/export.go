// Package export renders blueprints into interchange formats: OpenAPI,
// Postman, cURL, and Markdown. Renderers are thin templating over the
// typed model and perform no analysis. HAR output belongs to the capture
// codec, since HAR represents traffic rather than a blueprint.
package export

import (
	"fmt"
	"io"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Format names an output format.
type Format string

// Supported blueprint formats.
const (
	FormatOpenAPI     Format = "openapi"
	FormatOpenAPIYAML Format = "openapi-yaml"
	FormatPostman     Format = "postman"
	FormatCurl        Format = "curl"
	FormatMarkdown    Format = "markdown"
)

// WriteBlueprint renders a blueprint in the given format.
func WriteBlueprint(w io.Writer, format Format, bp *model.Blueprint) error {
	switch format {
	case FormatOpenAPI:
		return WriteOpenAPI(w, bp, false)
	case FormatOpenAPIYAML:
		return WriteOpenAPI(w, bp, true)
	case FormatPostman:
		return WritePostman(w, bp)
	case FormatCurl:
		return WriteCurl(w, bp)
	case FormatMarkdown:
		return WriteMarkdown(w, bp)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}
