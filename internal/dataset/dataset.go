// Package dataset loads page datasets collected by the fetcher and hands them
// to the normalizer.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/normalizer"
)

// Read decodes a raw page dataset from r.
func Read(r io.Reader) (*models.RawPageDataset, error) {
	var raw models.RawPageDataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if raw.Page.ID == "" {
		return nil, errors.New("dataset has no page id")
	}
	return &raw, nil
}

// Load reads the raw dataset stored at path.
func Load(path string) (*models.RawPageDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// LoadNormalized reads the dataset at path and normalizes every post.
func LoadNormalized(path string) (*models.PageDataset, error) {
	raw, err := Load(path)
	if err != nil {
		return nil, err
	}
	return normalizer.NormalizeDataset(raw), nil
}
