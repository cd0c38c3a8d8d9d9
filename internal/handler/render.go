package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/musicengine/auth-server-go/internal/errors"
)

var validate = validator.New()

func init() {
	// Report field names from json tags instead of struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// decodeAndValidate parses the request body into dst and runs struct
// validation, returning a VALIDATION_ERROR carrying per-field messages.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}

	if err := validate.Struct(dst); err != nil {
		fields := map[string]string{}
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return apperrors.ValidationError("Validation failed").WithDetails(fields)
	}

	return nil
}
