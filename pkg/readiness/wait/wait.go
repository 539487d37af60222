// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

// Package wait provides the blocking entry point of the readiness
// library: WaitForReady polls a set of deployments until all of them
// report as many ready replicas as desired, the timeout elapses, or
// the caller cancels.
package wait

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling"
	"github.com/giantswarm/muster/pkg/readiness/polling/collector"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
)

const (
	// DefaultPollInterval is used when Options leaves PollInterval unset.
	DefaultPollInterval = 2 * time.Second
)

// Poller is the interface WaitForReady needs from the polling package.
// *polling.StatusPoller implements it.
type Poller interface {
	Poll(ctx context.Context, refs object.DeploymentRefSet, options polling.Options) <-chan event.Event
}

// Options contains the parameters for a call to WaitForReady.
type Options struct {
	// Timeout is the total time budget for the wait. Must be greater
	// than zero.
	Timeout time.Duration

	// PollInterval defines how long to sleep between sweeps. Defaults
	// to DefaultPollInterval and must be smaller than Timeout.
	PollInterval time.Duration
}

// Result is returned by WaitForReady on success and enumerates the
// final snapshot for every deployment that was waited for.
type Result struct {
	// Satisfied contains the snapshots of all deployments, each of
	// which has been observed Ready, sorted by ref.
	Satisfied event.DeploymentStatuses
}

// WaitForReady polls the given deployments through the poller until
// every one of them has as many ready replicas as desired. Deployments
// that have been observed Ready are not re-checked, so a later
// regression does not un-satisfy them.
//
// On success the returned Result lists a snapshot per deployment. If
// the timeout elapses first, the error is a *TimeoutError listing the
// deployments still pending with their last-seen status or fetch
// error. If the passed-in context is done before the timeout, the
// error is a *CanceledError instead, so callers can distinguish the
// two. Transient fetch errors never terminate the wait by themselves.
func WaitForReady(ctx context.Context, poller Poller, refs object.DeploymentRefSet, options Options) (*Result, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no deployments to wait for")
	}
	if options.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be greater than zero")
	}
	if options.PollInterval == 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.PollInterval < 0 || options.PollInterval >= options.Timeout {
		return nil, fmt.Errorf("pollInterval must be greater than zero and smaller than timeout")
	}

	refs = refs.Unique()

	// Keep a handle on the caller's context so a caller-initiated abort
	// can be told apart from our own deadline below.
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	klog.V(3).Infof("waiting up to %v for %d deployments to become ready", options.Timeout, len(refs))

	eventChannel := poller.Poll(ctx, refs, polling.Options{
		PollInterval: options.PollInterval,
	})

	statusCollector := collector.NewStatusCollector(refs)
	done := statusCollector.Listen(eventChannel)
	<-done

	obs := statusCollector.LatestObservation()
	if obs.Error != nil {
		return nil, obs.Error
	}
	if obs.LastEventType == event.CompletedEvent {
		klog.V(3).Infof("all %d deployments ready", len(refs))
		return &Result{Satisfied: obs.Satisfied}, nil
	}

	// The event channel closed without completion, so the context is
	// done. Blame the caller's context if it is the one that fired;
	// otherwise the wait timeout has expired.
	if err := parent.Err(); err != nil {
		return nil, &CanceledError{Err: err}
	}

	return nil, newTimeoutError(refs, options.Timeout, obs)
}

func newTimeoutError(refs object.DeploymentRefSet, timeout time.Duration, obs *collector.Observation) *TimeoutError {
	pending := make([]PendingDeployment, 0, len(obs.Pending))
	for _, ds := range obs.Pending {
		pending = append(pending, PendingDeployment{
			Ref:        ds.Ref,
			LastStatus: ds.Status,
			Message:    ds.Message,
			LastError:  ds.Error,
		})
	}
	return &TimeoutError{
		Refs:    refs,
		Timeout: timeout,
		Pending: pending,
	}
}
