package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags of j and returns the first violation in a
// form suitable for the command line.
func Validate(j Job) error {
	err := validate.Struct(j)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("invalid arguments: %s is required", field)
	case "min", "max":
		return fmt.Errorf("invalid arguments: max concurrency must be between 1 and 16, got %v", fe.Value())
	default:
		return fmt.Errorf("invalid arguments: %s failed %q", field, fe.Tag())
	}
}
