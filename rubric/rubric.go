// Package rubric holds an ordered set of weighted criteria and grades text
// against it with an autograder strategy.
package rubric

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/core"
	"gopkg.in/yaml.v3"
)

// ErrNoGrader is returned by Grade when no grader is supplied
var ErrNoGrader = errors.New("rubric: grader is required")

// Rubric is an ordered, immutable list of criteria
type Rubric struct {
	criteria []core.Criterion
}

// file is the on-disk layout; a bare list of criteria is accepted too
type file struct {
	Criteria []core.Criterion `json:"criteria" yaml:"criteria"`
}

// New validates and copies criteria
func New(criteria []core.Criterion) (*Rubric, error) {
	for i, c := range criteria {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("criterion %d: %w", i+1, err)
		}
	}
	return &Rubric{criteria: append([]core.Criterion(nil), criteria...)}, nil
}

// Criteria returns a copy of the criteria in rubric order
func (r *Rubric) Criteria() []core.Criterion {
	return append([]core.Criterion(nil), r.criteria...)
}

// Len returns the number of criteria
func (r *Rubric) Len() int { return len(r.criteria) }

// Grade grades text with g. query is the prompt that produced text and may be empty.
func (r *Rubric) Grade(ctx context.Context, g autograder.Grader, text, query string) (core.EvaluationReport, error) {
	if g == nil {
		return core.EvaluationReport{}, ErrNoGrader
	}
	return g.Grade(ctx, text, r.criteria, query)
}

// Parse reads a rubric from YAML or JSON
func Parse(data []byte) (*Rubric, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		var list []core.Criterion
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("failed to parse rubric: %w", err)
		}
		f.Criteria = list
	}
	return New(f.Criteria)
}

// Load reads a rubric file
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rubric file %s: %w", path, err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Save writes the rubric as YAML
func (r *Rubric) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create rubric directory: %w", err)
		}
	}

	data, err := yaml.Marshal(file{Criteria: r.criteria})
	if err != nil {
		return fmt.Errorf("failed to marshal rubric: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rubric file: %w", err)
	}
	return nil
}
