// Package domain defines the core domain models for branchweb.
package domain

// Status is the application-level outcome reported in every JSON envelope.
//
// It is independent of the transport status code, which is always 200
// for envelope responses.
type Status int

// Envelope statuses. The numeric values are the envelope's response_code.
const (
	StatusSuccess     Status = 200
	StatusMissingData Status = 300
	StatusServFailure Status = 400
	StatusAuthFailure Status = 500
)

// String returns the status name used in the envelope's status field.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusMissingData:
		return "MISSING_DATA"
	case StatusServFailure:
		return "SERV_FAILURE"
	case StatusAuthFailure:
		return "AUTH_FAILURE"
	default:
		return "SERV_FAILURE"
	}
}

// Code returns the numeric response_code.
func (s Status) Code() int {
	return int(s)
}
