package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LabelEncoder maps class indices back to label names, in the order the
// classifier's outputs are laid out.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// LoadLabels reads a {"classes": [...]} file.
func LoadLabels(path string) (*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading label encoder: %w", err)
	}
	var le LabelEncoder
	if err := json.Unmarshal(data, &le); err != nil {
		return nil, fmt.Errorf("decoding label encoder %s: %w", path, err)
	}
	if err := le.validate(); err != nil {
		return nil, fmt.Errorf("label encoder %s: %w", path, err)
	}
	return &le, nil
}

// NewLabelEncoder builds an encoder from class names in index order.
func NewLabelEncoder(classes ...string) (*LabelEncoder, error) {
	le := &LabelEncoder{Classes: classes}
	if err := le.validate(); err != nil {
		return nil, err
	}
	return le, nil
}

func (le *LabelEncoder) validate() error {
	if len(le.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	seen := make(map[string]struct{}, len(le.Classes))
	for _, c := range le.Classes {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			return fmt.Errorf("blank class name")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate class %q", c)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Decode returns the label name of class index i.
func (le *LabelEncoder) Decode(i int) (string, error) {
	if i < 0 || i >= len(le.Classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", i, len(le.Classes))
	}
	return le.Classes[i], nil
}

// Len is the number of classes.
func (le *LabelEncoder) Len() int { return len(le.Classes) }
