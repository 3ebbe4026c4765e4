package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/opinionsim/simulation"
)

// Indent is the indentation used for all JSON written by this package.
const Indent = "    "

// WriteResult encodes out as indented JSON. Non-ASCII text is written as-is.
func WriteResult(w io.Writer, out *simulation.Output) error {
	return WriteJSON(w, out)
}

// WriteJSON encodes v as indented JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", Indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteResultFile writes the result JSON to path, replacing any existing file.
func WriteResultFile(path string, out *simulation.Output) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}
	if err := WriteResult(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadResultFile decodes a result previously written by WriteResultFile.
func ReadResultFile(path string) (*simulation.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var out simulation.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding result file: %w", err)
	}
	if out.Trajectories == nil {
		out.Trajectories = map[string][]float64{}
	}
	return &out, nil
}
