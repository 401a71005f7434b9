package export

import "fmt"

// Result is the outcome of one export attempt. Retryable is true only for
// transient/network-class failures; semantic rejections (bad auth,
// malformed file, unresolved duplicate) are never retryable.
type Result struct {
	Success   bool
	Retryable bool
	Message   string
}

// Successf builds a successful Result.
func Successf(format string, args ...interface{}) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Failure builds a permanent (non-retryable) failure.
func Failure(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// RetryableFailure builds a transient failure the scheduler may re-enqueue.
func RetryableFailure(format string, args ...interface{}) Result {
	return Result{Retryable: true, Message: fmt.Sprintf(format, args...)}
}
