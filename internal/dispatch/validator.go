package dispatch

import (
	"fmt"
	"strings"

	"github.com/scrypster/almanac/pkg/types"
)

// MissingFieldsSuggestion is the hint returned to callers when classification
// identified required fields the user did not supply.
const MissingFieldsSuggestion = "Please provide the missing information to complete your request"

// MissingFieldsError short-circuits dispatch when the classifier reports
// required fields absent from the user's request. No tool is invoked.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// CheckMissingFields returns a MissingFieldsError when the classification
// names missing fields, nil otherwise.
func CheckMissingFields(cls *types.ClassificationResult) error {
	if cls == nil || len(cls.MissingFields) == 0 {
		return nil
	}
	return &MissingFieldsError{Fields: cls.MissingFields}
}
