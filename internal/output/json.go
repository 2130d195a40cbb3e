package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pankaj-dahiya-devops/awsinv/internal/models"
)

// RenderJSON writes report to w as 2-space indented JSON followed by a
// newline. HTML characters in descriptions and tags are not escaped.
func RenderJSON(w io.Writer, report *models.InventoryReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode inventory report: %w", err)
	}
	return nil
}
