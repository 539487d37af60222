// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

// PollerEngine provides functionality for polling a cluster for the
// readiness of a set of deployments.
type PollerEngine struct {
	// Reader is used by cluster readers to fetch deployments.
	Reader client.Reader

	// Mapper resolves the version for the apps/Deployment GroupKind.
	Mapper meta.RESTMapper

	// StatusReader computes the readiness snapshot for a single
	// deployment. Exposed so tests can inject a fake.
	StatusReader StatusReader

	// ClusterReaderFactory creates the ClusterReader used during one
	// call to Poll.
	ClusterReaderFactory ClusterReaderFactory
}

// Options contains the different parameters that can be used to adjust
// the behavior of the PollerEngine.
// Timeout is not one of the options here as this should be accomplished
// by setting a timeout on the context: https://golang.org/pkg/context/
type Options struct {
	// PollInterval defines how long the engine sleeps between sweeps.
	PollInterval time.Duration
}

// Poll creates a new deploymentPollerRunner that polls all the
// deployments provided and reports readiness changes back on the
// returned event channel. The runner can be cancelled at any time by
// cancelling the context passed in.
//
// A deployment leaves the pending set permanently once it has been
// observed Ready; it is not re-checked on later sweeps. When the
// pending set is empty the runner emits a CompletedEvent and closes
// the channel. Transient fetch errors keep a deployment pending and
// never abort the runner.
func (e *PollerEngine) Poll(ctx context.Context, refs object.DeploymentRefSet, options Options) <-chan event.Event {
	eventChannel := make(chan event.Event)

	go func() {
		defer close(eventChannel)

		err := e.validate(refs, options)
		if err != nil {
			eventChannel <- event.Event{
				Type:  event.ErrorEvent,
				Error: err,
			}
			return
		}

		clusterReader, err := e.ClusterReaderFactory.New(e.Reader, e.Mapper, refs)
		if err != nil {
			eventChannel <- event.Event{
				Type:  event.ErrorEvent,
				Error: fmt.Errorf("error creating new ClusterReader: %w", err),
			}
			return
		}

		runner := &deploymentPollerRunner{
			clusterReader:    clusterReader,
			statusReader:     e.StatusReader,
			pending:          refs.Unique(),
			previousStatuses: make(map[object.DeploymentRef]*event.DeploymentStatus),
			eventChannel:     eventChannel,
			pollingInterval:  options.PollInterval,
		}
		runner.Run(ctx)
	}()

	return eventChannel
}

// validate checks that the engine, refs and options contain valid values.
func (e *PollerEngine) validate(refs object.DeploymentRefSet, options Options) error {
	if e.StatusReader == nil {
		return fmt.Errorf("statusReader must be specified")
	}
	if e.ClusterReaderFactory == nil {
		return fmt.Errorf("clusterReaderFactory must be specified")
	}
	if len(refs) == 0 {
		return fmt.Errorf("no deployments to poll")
	}
	for _, ref := range refs {
		if ref.Name == "" || ref.Namespace == "" {
			return fmt.Errorf("deployment ref %q must have both namespace and name", ref.String())
		}
	}
	if options.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be greater than zero")
	}
	return nil
}

// deploymentPollerRunner is responsible for polling of a set of
// deployments. Each call to Poll creates a new runner, which means we
// can keep state in the runner and all data is only accessed by a
// single goroutine, so we don't need synchronization.
type deploymentPollerRunner struct {
	// clusterReader is the interface for fetching deployments from the
	// cluster. It can make calls directly or use caching to reduce the
	// number of calls against the API server.
	clusterReader ClusterReader

	// statusReader computes the readiness snapshot for one deployment.
	statusReader StatusReader

	// pending contains the refs that have not yet been observed Ready.
	// Refs are removed as they become ready and are never re-checked.
	pending object.DeploymentRefSet

	// previousStatuses keeps track of the last snapshot for each of
	// the polled deployments. This is used to make sure we only send
	// events on the event channel when something has actually changed.
	previousStatuses map[object.DeploymentRef]*event.DeploymentStatus

	// eventChannel is where any updates to the readiness of the
	// deployments are sent. The caller of Poll listens on this.
	eventChannel chan event.Event

	// pollingInterval determines how long the runner sleeps between
	// sweeps.
	pollingInterval time.Duration
}

// Run implements the main polling loop. The first sweep happens right
// away, so a set of deployments that is already ready completes
// without a single sleep.
func (r *deploymentPollerRunner) Run(ctx context.Context) {
	if r.sweep(ctx) {
		r.complete()
		return
	}

	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			klog.V(4).Infof("polling cancelled with %d deployments pending (%v)", len(r.pending), ctx.Err())
			return
		case <-ticker.C:
			if r.sweep(ctx) {
				r.complete()
				return
			}
		}
	}
}

// sweep checks all pending deployments once and reports whether the
// pending set is now empty.
func (r *deploymentPollerRunner) sweep(ctx context.Context) bool {
	// Trigger a sync of the ClusterReader first. This may or may not
	// result in calls to the cluster, depending on the implementation.
	// A sync error is transient: the cluster reader surfaces it on the
	// subsequent Gets, where it is absorbed into the snapshots.
	if err := r.clusterReader.Sync(ctx); err != nil {
		klog.V(4).Infof("sync of cluster reader failed; keeping %d deployments pending: %v", len(r.pending), err)
	}

	for _, ref := range r.pending {
		if ctx.Err() != nil {
			return false
		}
		deploymentStatus := r.statusReader.ReadStatus(ctx, r.clusterReader, ref)
		if r.isUpdatedStatus(deploymentStatus) {
			r.previousStatuses[ref] = deploymentStatus
			r.eventChannel <- event.Event{
				Type:     event.ResourceUpdateEvent,
				Resource: deploymentStatus,
			}
		}
		if deploymentStatus.Status == status.ReadyStatus {
			r.pending = r.pending.Remove(ref)
		}
	}
	return len(r.pending) == 0
}

func (r *deploymentPollerRunner) complete() {
	klog.V(4).Info("all deployments ready")
	r.eventChannel <- event.Event{
		Type: event.CompletedEvent,
	}
}

func (r *deploymentPollerRunner) isUpdatedStatus(deploymentStatus *event.DeploymentStatus) bool {
	oldStatus, found := r.previousStatuses[deploymentStatus.Ref]
	if !found {
		return true
	}
	return !event.DeploymentStatusEqual(deploymentStatus, oldStatus)
}
