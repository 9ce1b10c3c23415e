package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldEmbeddingIndex holds the precomputed per-field course embeddings. For
// each indexed catalog field it stores one fixed-dimension vector per catalog
// row, in catalog row order. The index is computed offline and loaded once;
// it is never mutated after construction.
type FieldEmbeddingIndex struct {
	Model     string                 `json:"model"`
	Dimension int                    `json:"dimension"`
	Fields    map[string][][]float32 `json:"fields"`
}

// LoadEmbeddingIndex reads a precomputed embedding index from a JSON file.
func LoadEmbeddingIndex(path string) (*FieldEmbeddingIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding index %s: %w", path, err)
	}

	var index FieldEmbeddingIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse embedding index %s: %w", path, err)
	}

	if err := index.validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding index %s: %w", path, err)
	}

	return &index, nil
}

// Vectors returns the per-row vectors for a catalog field. The second return
// value is false when the field is not indexed.
func (idx *FieldEmbeddingIndex) Vectors(field string) ([][]float32, bool) {
	vecs, ok := idx.Fields[field]
	return vecs, ok
}

// Rows returns the number of rows in the index. All fields carry the same row
// count once validated.
func (idx *FieldEmbeddingIndex) Rows() int {
	for _, vecs := range idx.Fields {
		return len(vecs)
	}
	return 0
}

// validate checks internal consistency: every field has the same row count
// and every vector has the declared dimension.
func (idx *FieldEmbeddingIndex) validate() error {
	if len(idx.Fields) == 0 {
		return fmt.Errorf("index has no fields")
	}
	if idx.Dimension <= 0 {
		return fmt.Errorf("index dimension must be positive, got %d", idx.Dimension)
	}

	rows := -1
	for field, vecs := range idx.Fields {
		if rows == -1 {
			rows = len(vecs)
		} else if len(vecs) != rows {
			return fmt.Errorf("field %q has %d rows, expected %d", field, len(vecs), rows)
		}
		for i, vec := range vecs {
			if len(vec) != idx.Dimension {
				return fmt.Errorf("field %q row %d has dimension %d, expected %d", field, i, len(vec), idx.Dimension)
			}
		}
	}
	return nil
}
