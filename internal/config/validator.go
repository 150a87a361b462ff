package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates pipeline configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a pipeline configuration.
func ValidateConfig(config *PipelineConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors as
// ValidationErrors. CEL conditions are only checked for presence here;
// they are compiled when the pipeline is built.
func (v *Validator) Validate(config *PipelineConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(config)
	v.validateMetadata(&config.Metadata)
	v.validateSpec(&config.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateRoot validates root-level fields.
func (v *Validator) validateRoot(config *PipelineConfig) {
	if config.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(config.APIVersion, APIVersionPrefix) {
		v.addError("apiVersion", "apiVersion must start with '"+APIVersionPrefix+"'")
	}

	if config.Kind == "" {
		v.addError("kind", "kind is required")
	} else if config.Kind != KindPipeline {
		v.addError("kind", "kind must be '"+KindPipeline+"'")
	}
}

// validateMetadata validates metadata fields.
func (v *Validator) validateMetadata(metadata *Metadata) {
	if metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

// validateSpec validates the pipeline spec.
func (v *Validator) validateSpec(spec *PipelineSpec) {
	if len(spec.Steps) == 0 {
		v.addError("spec.steps", "at least one step is required")
	}

	for i := range spec.Steps {
		v.validateStep(&spec.Steps[i], fmt.Sprintf("spec.steps[%d]", i))
	}

	if spec.Tracing != nil {
		rate := spec.Tracing.SamplingRate
		if rate < 0 || rate > 1 {
			v.addError("spec.tracing.samplingRate", "samplingRate must be between 0 and 1")
		}
	}
}

// validateStep validates the fields required by the step type.
func (v *Validator) validateStep(step *StepConfig, path string) {
	switch step.Type {
	case StepJoin:
		if step.KeyField == "" {
			v.addError(path+".keyField", "keyField is required for join steps")
		}
	case StepMerge:
		if step.Category != "" {
			v.addError(path+".category", "category is not supported for merge steps")
		}
	case StepPromote, StepRemove:
		if step.Key == "" {
			v.addError(path+".key", "key is required for "+step.Type+" steps")
		}
	case StepDefaults:
		if len(step.ArrayFields)+len(step.MappingFields)+len(step.StringFields) == 0 {
			v.addError(path, "defaults steps require at least one of arrayFields, mappingFields, stringFields")
		}
	case StepPrune:
	case "":
		v.addError(path+".type", "type is required")
	default:
		v.addError(path+".type", fmt.Sprintf("unknown step type %q", step.Type))
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{
		Path:    path,
		Message: message,
	})
}
