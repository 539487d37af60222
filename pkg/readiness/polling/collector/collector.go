// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"sort"
	"sync"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

func NewStatusCollector(refs object.DeploymentRefSet) *StatusCollector {
	deploymentStatuses := make(map[object.DeploymentRef]*event.DeploymentStatus)
	for _, ref := range refs {
		deploymentStatuses[ref] = &event.DeploymentStatus{
			Ref:    ref,
			Status: status.UnknownStatus,
		}
	}
	return &StatusCollector{
		deploymentStatuses: deploymentStatuses,
	}
}

// Observer is an interface that can be implemented to have the
// StatusCollector invoke the function on every event that comes
// through the event channel.
// The callback happens in the processing goroutine and while the
// goroutine holds the lock, so any processing in the callback
// must be done quickly.
type Observer interface {
	Notify(*StatusCollector, event.Event)
}

// ObserverFunc is a function implementation of the Observer
// interface.
type ObserverFunc func(*StatusCollector, event.Event)

func (o ObserverFunc) Notify(sc *StatusCollector, e event.Event) {
	o(sc, e)
}

// StatusCollector is for use by clients of the polling library and
// provides a way to keep track of the latest readiness snapshot for all
// the polled deployments. The collector is set up to listen to the
// event channel and keep the latest snapshot for each deployment. It
// also provides a way to fetch the latest state for all deployments,
// split into satisfied and pending, at any point. The functions handle
// synchronization so it can be used by multiple goroutines.
type StatusCollector struct {
	mux sync.RWMutex

	lastEventType event.Type

	deploymentStatuses map[object.DeploymentRef]*event.DeploymentStatus

	err error
}

// Listen kicks off the goroutine that will listen for the events on
// the event channel. It returns a channel that will be closed when the
// collector stops listening to the event channel, i.e. when the event
// channel is closed by the engine.
func (o *StatusCollector) Listen(eventChannel <-chan event.Event) <-chan struct{} {
	return o.ListenWithObserver(eventChannel, nil)
}

// ListenWithObserver kicks off the goroutine that will listen for the
// events on the event channel. It returns a channel that will be
// closed when the collector stops listening to the event channel.
// The provided observer will be invoked on every event, after the
// event has been processed.
func (o *StatusCollector) ListenWithObserver(eventChannel <-chan event.Event, observer Observer) <-chan struct{} {
	completed := make(chan struct{})
	go func() {
		defer close(completed)
		for e := range eventChannel {
			o.processEvent(e)
			if observer != nil {
				observer.Notify(o, e)
			}
		}
	}()
	return completed
}

func (o *StatusCollector) processEvent(e event.Event) {
	o.mux.Lock()
	defer o.mux.Unlock()
	o.lastEventType = e.Type
	if e.Type == event.ErrorEvent {
		o.err = e.Error
		return
	}
	if e.Type == event.ResourceUpdateEvent {
		deploymentStatus := e.Resource
		o.deploymentStatuses[deploymentStatus.Ref] = deploymentStatus
	}
}

// Observation contains the latest state known by the collector as
// returned by a call to the LatestObservation function. The satisfied
// and pending sets together always cover every polled deployment, and
// Errors holds the last transient error seen for each deployment that
// has one.
type Observation struct {
	LastEventType event.Type

	// Satisfied contains the snapshots of the deployments that have
	// been observed Ready, sorted by ref.
	Satisfied event.DeploymentStatuses

	// Pending contains the snapshots of the deployments that have not
	// (yet) been observed Ready, sorted by ref.
	Pending event.DeploymentStatuses

	// Errors maps each deployment to the transient error from its most
	// recent snapshot, for those that have one.
	Errors map[object.DeploymentRef]error

	// Error is the terminal engine error, if the engine gave up.
	Error error
}

// LatestObservation returns an Observation instance, which contains
// the latest information about the deployments known by the collector.
func (o *StatusCollector) LatestObservation() *Observation {
	o.mux.RLock()
	defer o.mux.RUnlock()

	var satisfied, pending event.DeploymentStatuses
	errs := make(map[object.DeploymentRef]error)
	for _, deploymentStatus := range o.deploymentStatuses {
		if deploymentStatus.Status == status.ReadyStatus {
			satisfied = append(satisfied, deploymentStatus)
		} else {
			pending = append(pending, deploymentStatus)
		}
		if deploymentStatus.Error != nil {
			errs[deploymentStatus.Ref] = deploymentStatus.Error
		}
	}
	sort.Sort(satisfied)
	sort.Sort(pending)

	return &Observation{
		LastEventType: o.lastEventType,
		Satisfied:     satisfied,
		Pending:       pending,
		Errors:        errs,
		Error:         o.err,
	}
}
