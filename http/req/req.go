package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/retention"
)

// A Parser decodes and validates request payloads.
// A Parser is safe for concurrent use.
type Parser struct {
	dec *schema.Decoder
	validator
}

// NewParser constructs a *Parser.
func NewParser() *Parser {
	return &Parser{
		dec:       newQueryParamDecoder(),
		validator: newValidator(),
	}
}

// ParseBody decodes into a pointer to a struct the JSON data in body.
// If successful, ParseBody runs validation against the contents,
// returning ValidationErrors if the data fails validation rules.
//
// ParseBody reads the entire body and it can't be read from again.
func (p *Parser) ParseBody(body io.Reader, structPtr any) error {
	var ourFault *json.InvalidUnmarshalError
	err := json.NewDecoder(body).Decode(structPtr)
	if errors.As(err, &ourFault) {
		return fmt.Errorf("%w: ParseBody called with non-pointer: %s", retention.ErrUnexpected, err)
	}

	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty request body", retention.ErrMissingData)
	}

	if err != nil {
		return fmt.Errorf("%w: failed decoding request body: %s", retention.ErrNotValid, err)
	}

	if err := p.validate(structPtr); err != nil {
		return err
	}

	return nil
}

// ParseQueryParams decodes into a pointer to a struct the query param data in params.
// If successful, ParseQueryParams runs validation against the contents,
// returning ValidationErrors if the data fails validation rules.
func (p *Parser) ParseQueryParams(params url.Values, structPtr any) error {
	if err := p.dec.Decode(structPtr, params); err != nil {
		return translateDecoderError(err)
	}

	if err := p.validate(structPtr); err != nil {
		return err
	}

	return nil
}
