package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/audit-report-converter/internal/models"
)

// JSONLWriter writes one JSON object per line, the shape queue consumers
// expect.
type JSONLWriter struct{}

// WriteToFile writes messages as JSON lines to the given path.
func (w *JSONLWriter) WriteToFile(path string, messages []models.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, messages)
}

// Write encodes each message on its own line.
func (w *JSONLWriter) Write(out io.Writer, messages []models.Message) error {
	enc := json.NewEncoder(out)
	for i := range messages {
		if err := enc.Encode(&messages[i]); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}
	return nil
}
