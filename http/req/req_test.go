package req_test

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/req"
)

type suspendBody struct {
	AccountID uuid.UUID       `json:"accountId" validate:"required"`
	Reason    string          `json:"reason" validate:"required,max=20"`
	State     retention.State `json:"state" validate:"omitempty,enum"`
}

func TestParserParseBody(t *testing.T) {
	// Arrange
	parser := req.NewParser()
	var output suspendBody

	// Act
	err := parser.ParseBody(strings.NewReader(`{}`), suspendBody{})

	// Assert
	require.ErrorIs(t, err, retention.ErrUnexpected)

	// Act
	err = parser.ParseBody(new(bytes.Buffer), &output)

	// Assert
	require.ErrorIs(t, err, retention.ErrMissingData)

	// Act
	err = parser.ParseBody(strings.NewReader("\x00"), &output)

	// Assert
	require.ErrorIs(t, err, retention.ErrNotValid)

	// Act
	err = parser.ParseBody(strings.NewReader(`{"accountId":"not-a-uuid","reason":"spam"}`), &output)

	// Assert
	require.ErrorIs(t, err, retention.ErrNotValid)

	// Arrange
	var actual req.ValidationErrors

	// Act
	err = parser.ParseBody(strings.NewReader(`{"reason":"far too long of a reason","state":"frozen"}`), &output)

	// Assert
	require.ErrorIs(t, err, retention.ErrNotValid)
	require.ErrorAs(t, err, &actual)
	require.Len(t, actual, 3)
	require.Equal(t, "accountId", actual[0].Field)
	require.Equal(t, "reason", actual[1].Field)
	require.Equal(t, "max=20; string", actual[1].Rule)
	require.Equal(t, "state", actual[2].Field)
	require.Equal(t, "enum; retention.State", actual[2].Rule)

	// Arrange
	id := uuid.New()
	b := new(bytes.Buffer)
	require.Nil(t, json.NewEncoder(b).Encode(map[string]any{"accountId": id, "reason": "spam", "state": "suspended"}))
	output = suspendBody{}

	// Act
	err = parser.ParseBody(b, &output)

	// Assert
	require.Nil(t, err)
	require.Equal(t, suspendBody{AccountID: id, Reason: "spam", State: retention.StateSuspended}, output)
}

func TestParserParseQueryParams(t *testing.T) {
	type auditQuery struct {
		AccountID string `schema:"accountId" validate:"required,uuid"`
		Limit     int    `schema:"limit" validate:"omitempty,min=1"`
	}

	// Arrange
	parser := req.NewParser()
	id := uuid.NewString()
	var output auditQuery

	// Act
	err := parser.ParseQueryParams(url.Values{"accountId": {id}, "other": {"ignored"}}, &output)

	// Assert
	require.Nil(t, err)
	require.Equal(t, auditQuery{AccountID: id}, output)

	// Arrange
	var actual req.ValidationErrors
	output = auditQuery{}

	// Act
	err = parser.ParseQueryParams(url.Values{"accountId": {"nope"}}, &output)

	// Assert
	require.ErrorAs(t, err, &actual)
	require.Equal(t, "accountId", actual[0].Field)
	require.Equal(t, "uuid; string", actual[0].Rule)

	// Arrange
	output = auditQuery{}

	// Act
	err = parser.ParseQueryParams(url.Values{"accountId": {id}, "limit": {"many"}}, &output)

	// Assert
	require.ErrorAs(t, err, &actual)
	require.Equal(t, "limit", actual[0].Field)
	require.Equal(t, "must be int", actual[0].Rule)
}

func TestValidationErrors(t *testing.T) {
	// Arrange
	v := req.ValidationErrors{
		{Field: "accountId", Got: "", Rule: "required; uuid.UUID"},
		{Field: "reason", Got: "", Rule: "required; string"},
	}

	// Act
	b, err := json.Marshal(v)

	// Assert
	require.Nil(t, err)
	require.JSONEq(t, `{"validationErrors":[
		{"field":"accountId","got":"","rule":"required; uuid.UUID"},
		{"field":"reason","got":"","rule":"required; string"}
	]}`, string(b))
	require.Equal(t, `field="accountId" rule="required; uuid.UUID" got=""`+"\n"+`field="reason" rule="required; string" got=""`, v.Error())
	require.ErrorIs(t, v, retention.ErrNotValid)
}
