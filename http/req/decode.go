package req

import (
	"errors"
	"fmt"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/retention"
)

func newQueryParamDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return dec
}

// translateDecoderError converts an error returned by *schema.Decoder into standardized errors.
// Some *schema.Decoder errors are issues with calling code;
// others are mismatches between a request's query params and the expected shape.
func translateDecoderError(err error) error {
	var pkgErrs schema.MultiError
	if !errors.As(err, &pkgErrs) {
		return fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
	}

	var validErrs ValidationErrors
	for _, pkgErr := range pkgErrs {
		switch err := pkgErr.(type) {
		case schema.ConversionError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   fmt.Sprintf("bad value at index %d", max(0, err.Index)),
				Rule:  "must be " + err.Type.String(),
			})

		case schema.UnknownKeyError:
			validErrs = append(validErrs, ValidationError{
				Field: err.Key,
				Got:   "value is set",
				Rule:  "unexpected key should not be set",
			})

		default:
			// Anything else is a struct tag misconfiguration.
			return fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
		}
	}

	return validErrs
}
