package retry

import (
	"context"
	"errors"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsretry "github.com/aws/aws-sdk-go-v2/aws/retry"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Class is the closed set of failure categories the guard acts on.
type Class int

const (
	// ClassNone is returned for a nil error.
	ClassNone Class = iota

	// ClassTransient covers connection, timeout, and unreachable-endpoint
	// failures. These are retried once.
	ClassTransient

	// ClassCanceled covers caller cancellation (interrupt). Never retried and
	// never logged as a warning; the run is stopping.
	ClassCanceled

	// ClassOther is every application-level failure: access denied, throttling
	// that outlived the SDK retryer, malformed requests, missing entities.
	ClassOther
)

// String returns a lowercase label used in log attributes.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// Classify maps err to exactly one Class. It is the only place in the module
// that inspects SDK transport errors.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	var canceled *aws.RequestCanceledError
	if errors.Is(err, context.Canceled) || errors.As(err, &canceled) {
		return ClassCanceled
	}

	// Unlike the SDK retryer, an NXDOMAIN is treated as transient: it is how
	// an unreachable regional endpoint surfaces.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassTransient
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return ClassTransient
	}

	if (awsretry.RetryableConnectionError{}).IsErrorRetryable(err) == aws.TrueTernary {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	return ClassOther
}
