// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package wait

import (
	"fmt"
	"strings"
	"time"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

// TimeoutError is returned by WaitForReady when the timeout elapsed
// with deployments still pending. It always enumerates exactly which
// deployments were still pending together with their last-seen state,
// so callers never get a bare failure.
type TimeoutError struct {
	// Refs contains the refs of all deployments the call was
	// waiting for.
	Refs object.DeploymentRefSet

	// Timeout is the amount of time it took before it timed out.
	Timeout time.Duration

	// Pending contains the last-seen state for every deployment that
	// had not become ready when the deadline was reached.
	Pending []PendingDeployment
}

// PendingDeployment describes the last-seen state of one deployment
// that was still pending at timeout.
type PendingDeployment struct {
	Ref object.DeploymentRef

	LastStatus status.Status

	Message string

	// LastError is the transient fetch error from the most recent
	// sweep, if the deployment could not be fetched.
	LastError error
}

func (pd PendingDeployment) String() string {
	if pd.LastError != nil {
		return fmt.Sprintf("%s (%s: %v)", pd.Ref, pd.LastStatus, pd.LastError)
	}
	return fmt.Sprintf("%s (%s: %s)", pd.Ref, pd.LastStatus, pd.Message)
}

func (te *TimeoutError) Error() string {
	pending := make([]string, 0, len(te.Pending))
	for _, pd := range te.Pending {
		pending = append(pending, pd.String())
	}
	return fmt.Sprintf("timeout after %.0f seconds waiting for %d deployments to become ready: %s",
		te.Timeout.Seconds(), len(te.Refs), strings.Join(pending, ", "))
}

// IsTimeoutError checks whether a given error is a TimeoutError.
func IsTimeoutError(err error) (*TimeoutError, bool) {
	if e, ok := err.(*TimeoutError); ok {
		return e, true
	}
	return &TimeoutError{}, false
}

// CanceledError is returned by WaitForReady when the caller's context
// is done before the wait timeout has elapsed. It is distinct from
// TimeoutError so callers can tell an aborted wait from an expired one.
type CanceledError struct {
	// Err is the error reported by the caller's context.
	Err error
}

func (ce *CanceledError) Error() string {
	return fmt.Sprintf("wait for deployments canceled: %v", ce.Err)
}

func (ce *CanceledError) Unwrap() error {
	return ce.Err
}

// IsCanceledError checks whether a given error is a CanceledError.
func IsCanceledError(err error) (*CanceledError, bool) {
	if e, ok := err.(*CanceledError); ok {
		return e, true
	}
	return &CanceledError{}, false
}
