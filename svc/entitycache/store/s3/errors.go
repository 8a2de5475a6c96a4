package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig      = errors.New("s3: bucket and region are required")
	ErrFailedToLoadConfig = errors.New("s3: failed to load aws config")
	ErrBucketNotFound     = errors.New("s3: bucket not found")
	ErrAccessDenied       = errors.New("s3: access denied")
	ErrServiceUnavailable = errors.New("s3: service temporarily unavailable")
	ErrOperationTimeout   = errors.New("s3: operation timed out")
	ErrOperationCanceled  = errors.New("s3: operation canceled")
	ErrMalformedObject    = errors.New("s3: malformed entity object")
)

// isNotFound reports whether err means the object does not exist.
// HEAD responses carry no body, so they surface as NotFound rather than NoSuchKey.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// classifyError maps SDK errors onto the package errors, keeping the cause.
func classifyError(err error, op string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %w", ErrOperationTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s: %w", ErrOperationCanceled, op, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %s: %w", ErrBucketNotFound, op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %s: %w", ErrBucketNotFound, op, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s: %w", ErrAccessDenied, op, err)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "InternalError":
			return fmt.Errorf("%w: %s: %w", ErrServiceUnavailable, op, err)
		}
	}

	return fmt.Errorf("s3: %s: %w", op, err)
}
