package response

import (
	"errors"
	"strings"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST        ErrCode = "REQUEST_FAILED"
	BAD_REQUEST           ErrCode = "FAILED_TO_DECODE"
	VALIDATION_FAILED     ErrCode = "VALIDATION_FAILED"
	NOT_FOUND             ErrCode = "NOT_FOUND"
	LOCKED                ErrCode = "LOCKED"
	CONFLICT              ErrCode = "CONFLICT"
	SLOT_TAKEN            ErrCode = "SLOT_TAKEN"
	STAFF_UNAVAILABLE     ErrCode = "STAFF_UNAVAILABLE"
	NO_SERVICE_SELECTED   ErrCode = "NO_SERVICE_SELECTED"
	OUTSIDE_WORKING_HOURS ErrCode = "OUTSIDE_WORKING_HOURS"
	NON_WORKING_DAY       ErrCode = "NON_WORKING_DAY"
	INVALID_TRANSITION    ErrCode = "INVALID_TRANSITION"
	UPSTREAM_FAILED       ErrCode = "UPSTREAM_FAILED"
	DUPLICATE_EVENT       ErrCode = "DUPLICATE_EVENT"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("resource not found")
	ErrLocked              = errors.New("resource is locked")
	ErrSlotTaken           = errors.New("slot is already taken")
	ErrStaffUnavailable    = errors.New("manicurist is not available")
	ErrNoServiceSelected   = errors.New("no service selected")
	ErrOutsideWorkingHours = errors.New("time is outside working hours")
	ErrNonWorkingDay       = errors.New("manicurist does not work that day")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUpstream            = errors.New("payment provider request failed")
	ErrDuplicateEvent      = errors.New("provider event already processed")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

// ValidationErrors collects client-correctable input problems so they can all be
// returned in one round trip.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

func Validation(errs ValidationErrors) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    string(VALIDATION_FAILED),
			Message: "validation failed",
			Details: errs,
		},
	}
}
