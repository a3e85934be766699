// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	apperrors "yecs-workers/internal/common/errors"
)

// Validate checks document against a JSON schema. An empty schema accepts
// anything. Violations come back as one INPUT_VALIDATION_FAILED error
// listing every failed rule, sorted by field.
func Validate(taskType string, schema map[string]interface{}, document interface{}) error {
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("validate %s input: %w", taskType, err))
	}

	if result.Valid() {
		return nil
	}
	return apperrors.NewInputValidationFailedError(taskType, Violations(result.Errors()))
}

// Violations renders schema errors as "field: description".
func Violations(errs []gojsonschema.ResultError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = fmt.Sprintf("%s: %s", e.Field(), e.Description())
	}
	sort.Strings(out)
	return out
}
