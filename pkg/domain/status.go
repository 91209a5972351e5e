package domain

import (
	"fmt"

	"github.com/osvaldoandrade/visiongo/internal/wire"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// StatusCode is the top-level status of an API call. It shares no values with
// the training, evaluation or input code spaces below.
type StatusCode int

const (
	StatusOK           StatusCode = 10000
	StatusMixedSuccess StatusCode = 10010
	StatusFailure      StatusCode = 10020

	StatusThrottled       StatusCode = 11005
	StatusKeyInvalid      StatusCode = 11009
	StatusNotFound        StatusCode = 11101
	StatusInvalidArgument StatusCode = 11102
)

var successCodes = []StatusCode{StatusOK}

// IsSuccess reports whether the call succeeded. Mixed success is a failure:
// the payload cannot be trusted to be complete.
func (c StatusCode) IsSuccess() bool {
	return lo.Contains(successCodes, c)
}

// Status is a code and description returned by the service.
type Status struct {
	Code        StatusCode
	Description string
	Details     string
}

func (s Status) String() string {
	if s.Details != "" {
		return fmt.Sprintf("%d %s (%s)", s.Code, s.Description, s.Details)
	}
	return fmt.Sprintf("%d %s", s.Code, s.Description)
}

func (s Status) Serialize() string {
	return serializeStatus(int(s.Code), s.Description).SetString("details", s.Details).String()
}

func ParseStatus(node gjson.Result) (Status, error) {
	code, desc, err := parseStatus[StatusCode](node)
	if err != nil {
		return Status{}, err
	}
	details, err := wire.OptString(node, "details")
	if err != nil {
		return Status{}, err
	}
	return Status{Code: code, Description: desc, Details: details}, nil
}

func parseStatus[C ~int](node gjson.Result) (C, string, error) {
	code, err := wire.Int(node, "code")
	if err != nil {
		return 0, "", err
	}
	desc, err := wire.OptString(node, "description")
	if err != nil {
		return 0, "", err
	}
	return C(code), desc, nil
}

func serializeStatus(code int, desc string) *wire.Object {
	return wire.NewObject().Set("code", code).SetString("description", desc)
}
