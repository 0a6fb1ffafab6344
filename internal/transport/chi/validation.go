package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// maxBodyBytes bounds request bodies; document uploads are the largest.
const maxBodyBytes = 64 << 20

var validate = validator.New()

// decodeJSON reads a request body. An empty body leaves dst untouched.
// Failures are ErrInvalidRequest.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Invalid("invalid request body: %v", err)
	}
	return nil
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return domain.Invalid("%s: %s", ve[0].Field(), formatValidationError(ve[0]))
		}
		return domain.Invalid("validation failed: %v", err)
	}
	return nil
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
