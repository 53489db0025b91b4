package records

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validate is shared and concurrency-safe per the validator docs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStudentFields checks the field struct against its constraints and
// folds the first failure into a ValidationError. Runs before any
// persistence attempt.
func ValidateStudentFields(f StudentFields) error {
	return toValidationError(validate.Struct(f))
}

// ValidateTeacherFields is the teacher counterpart.
func ValidateTeacherFields(f TeacherFields) error {
	return toValidationError(validate.Struct(f))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed constraint " + fe.Tag()
		switch fe.Tag() {
		case "required":
			reason = "is required"
		case "gte":
			reason = "must be at least " + fe.Param()
		case "lte":
			reason = "must be at most " + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &ValidationError{Reason: err.Error()}
}
