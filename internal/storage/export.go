package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata RunMetadata   `json:"metadata"`
	Frames   []FrameRecord `json:"frames"`
}

// ExportJSON writes a run's metadata and frame history as one indented
// JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: *meta, Frames: frames})
}
