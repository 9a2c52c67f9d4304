package mafiav1

import (
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// ErrorDomain is the errdetails.ErrorInfo domain of every structured error.
	ErrorDomain = "mafia.v1"
	// ReasonActionUnavailable marks a rejected PerformAction. Metadata key
	// "available" lists the offered actions, comma separated.
	ReasonActionUnavailable = "ACTION_UNAVAILABLE"
)

// ActionUnavailableStatus builds the INVALID_ARGUMENT error returned for an
// action that is not currently offered.
func ActionUnavailableStatus(msg string, available []string) error {
	st := status.New(codes.InvalidArgument, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   ReasonActionUnavailable,
		Domain:   ErrorDomain,
		Metadata: map[string]string{"available": strings.Join(available, ",")},
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// AvailableFromStatus extracts the offered actions from a rejected
// PerformAction error.
//
// Postcondition: ok is false when err carries no ACTION_UNAVAILABLE detail.
func AvailableFromStatus(err error) (available []string, ok bool) {
	st, isStatus := status.FromError(err)
	if !isStatus {
		return nil, false
	}
	for _, d := range st.Details() {
		info, isInfo := d.(*errdetails.ErrorInfo)
		if !isInfo || info.GetReason() != ReasonActionUnavailable {
			continue
		}
		raw := info.GetMetadata()["available"]
		if raw == "" {
			return []string{}, true
		}
		return strings.Split(raw, ","), true
	}
	return nil, false
}
