package config

import (
	"github.com/vyrodovalexey/treejoin/internal/observability"
)

// API identification of pipeline configuration documents.
const (
	APIVersionPrefix  = "treejoin.io/"
	DefaultAPIVersion = APIVersionPrefix + "v1"
	KindPipeline      = "Pipeline"
)

// Step types.
const (
	// StepJoin joins every further source into the first one on KeyField,
	// for the Category member when set or for the whole documents otherwise.
	StepJoin = "join"
	// StepMerge deep-merges every further source into the first one.
	StepMerge = "merge"
	// StepPromote lifts the data under Key into its parent.
	StepPromote = "promote"
	// StepRemove deletes Key wherever it appears.
	StepRemove = "remove"
	// StepDefaults fills missing fields with empty values.
	StepDefaults = "defaults"
	// StepPrune deletes empty fields.
	StepPrune = "prune"
)

// PipelineConfig is the root configuration of a transform pipeline.
type PipelineConfig struct {
	APIVersion string       `yaml:"apiVersion" json:"apiVersion"`
	Kind       string       `yaml:"kind" json:"kind"`
	Metadata   Metadata     `yaml:"metadata" json:"metadata"`
	Spec       PipelineSpec `yaml:"spec" json:"spec"`
}

// Metadata contains pipeline metadata.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// PipelineSpec contains the pipeline specification.
type PipelineSpec struct {
	Steps   []StepConfig                `yaml:"steps" json:"steps"`
	Logging *observability.LogConfig    `yaml:"logging,omitempty" json:"logging,omitempty"`
	Tracing *observability.TracerConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// StepConfig describes one pipeline step. Which fields apply depends on
// Type.
type StepConfig struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Type string `yaml:"type" json:"type"`

	// Category selects a top-level member of the document. For join it is
	// the member to join; for the other steps it narrows the step to that
	// member.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	KeyField string `yaml:"keyField,omitempty" json:"keyField,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`

	ArrayFields   []string `yaml:"arrayFields,omitempty" json:"arrayFields,omitempty"`
	MappingFields []string `yaml:"mappingFields,omitempty" json:"mappingFields,omitempty"`
	StringFields  []string `yaml:"stringFields,omitempty" json:"stringFields,omitempty"`

	// When is an optional CEL expression over the current document, bound
	// to the variable doc. The step runs only when it evaluates to true.
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// DisplayName returns the step name, or its type when unnamed.
func (s *StepConfig) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}
