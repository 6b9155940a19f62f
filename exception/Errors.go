package exception

import (
	"fmt"
	"strings"
)

const (
	DeletedCountMismatch    = "1001"
	DeletedCountMismatchMsg = "$entity cleanup deleted $deleted rows of $expected fetched"

	SafetyLimitExceeded    = "1002"
	SafetyLimitExceededMsg = "$entity cleanup matched $count rows which exceeds the limit of $limit"

	InvalidRow    = "1003"
	InvalidRowMsg = "$entity row $id has unexpected shape: $reason"

	IncorrectParamType    = "1004"
	IncorrectParamTypeMsg = "$param parameter should be $type"

	InvalidParameterValue = "1005"
	InvalidLimitMsg       = "Value '$value' is not allowed for parameter limit. Allowed values are in range 1:$maxLimit"

	CleanupJobNotFound    = "1006"
	CleanupJobNotFoundMsg = "Cleanup job $job not found"
)

type CustomError struct {
	Status  int                    `json:"status"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Debug   string                 `json:"debug,omitempty"`
}

func (c CustomError) Error() string {
	msg := c.Message
	for k, v := range c.Params {
		msg = strings.ReplaceAll(msg, "$"+k, fmt.Sprintf("%v", v))
	}
	if c.Debug != "" {
		return msg + " | " + c.Debug
	} else {
		return msg
	}
}

func NewCountMismatchError(entity string, expected int, deleted int) *CustomError {
	return &CustomError{
		Code:    DeletedCountMismatch,
		Message: DeletedCountMismatchMsg,
		Params:  map[string]interface{}{"entity": entity, "expected": expected, "deleted": deleted},
	}
}

func NewSafetyLimitError(entity string, count int, limit int) *CustomError {
	return &CustomError{
		Code:    SafetyLimitExceeded,
		Message: SafetyLimitExceededMsg,
		Params:  map[string]interface{}{"entity": entity, "count": count, "limit": limit},
	}
}

func NewInvalidRowError(entity string, id string, err error) *CustomError {
	return &CustomError{
		Code:    InvalidRow,
		Message: InvalidRowMsg,
		Params:  map[string]interface{}{"entity": entity, "id": id, "reason": err.Error()},
	}
}
