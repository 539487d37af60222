// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

// Type is the type of the Event.
type Type int

const (
	// ResourceUpdateEvent describes events related to a change in the
	// status of one of the polled deployments.
	ResourceUpdateEvent Type = iota
	// CompletedEvent signals that all polled deployments have become
	// ready. No more events will be sent and the channel is closed.
	CompletedEvent
	// ErrorEvent signals that the engine has encountered an error that
	// it cannot recover from. No more events will be sent and the
	// channel is closed.
	ErrorEvent
)

func (t Type) String() string {
	switch t {
	case ResourceUpdateEvent:
		return "ResourceUpdateEvent"
	case CompletedEvent:
		return "CompletedEvent"
	case ErrorEvent:
		return "ErrorEvent"
	default:
		return fmt.Sprintf("UnknownType(%d)", int(t))
	}
}

// Event defines that type sent on the event channel from the engine.
type Event struct {
	// Type defines the type of event.
	Type Type

	// Resource is only available for ResourceUpdateEvents and contains
	// the latest readiness snapshot for a single deployment.
	Resource *DeploymentStatus

	// Error is only available for ErrorEvents. It contains the error
	// that caused the polling to fail.
	Error error
}

// DeploymentStatus contains the readiness of a single deployment as
// observed during one sweep. It is a derived snapshot; the engine
// builds a fresh one on every sweep and discards the previous one.
type DeploymentStatus struct {
	// Ref identifies the deployment.
	Ref object.DeploymentRef

	// Status is the readiness of the deployment at ObservedAt.
	Status status.Status

	// Message is a human readable description of the status.
	Message string

	// DesiredReplicas is the replica count from the deployment spec.
	DesiredReplicas int32

	// ReadyReplicas is the ready replica count from the deployment status.
	ReadyReplicas int32

	// ObservedAt is when the snapshot was taken.
	ObservedAt time.Time

	// Resource contains the deployment as fetched from the cluster,
	// if it could be fetched.
	Resource *unstructured.Unstructured

	// Error holds the transient fetch or compute error from the most
	// recent sweep, if any. A set Error never aborts polling of the
	// deployment; it is retried on the next sweep.
	Error error
}

// DeploymentStatuses is a sortable slice of DeploymentStatus, ordered
// by ref.
type DeploymentStatuses []*DeploymentStatus

func (g DeploymentStatuses) Len() int {
	return len(g)
}

func (g DeploymentStatuses) Less(i, j int) bool {
	return g[i].Ref.String() < g[j].Ref.String()
}

func (g DeploymentStatuses) Swap(i, j int) {
	g[i], g[j] = g[j], g[i]
}

// DeploymentStatusEqual checks if two instances of DeploymentStatus
// are the same. It is used by the engine to decide whether a new
// snapshot is worth an event. The ObservedAt timestamp and the raw
// Resource are deliberately left out of the comparison; errors are
// compared by message since most error types are not comparable.
func DeploymentStatusEqual(or1, or2 *DeploymentStatus) bool {
	if or1.Ref != or2.Ref ||
		or1.Status != or2.Status ||
		or1.Message != or2.Message ||
		or1.DesiredReplicas != or2.DesiredReplicas ||
		or1.ReadyReplicas != or2.ReadyReplicas {
		return false
	}

	if err1, err2 := or1.Error, or2.Error; err1 != nil || err2 != nil {
		if err1 == nil || err2 == nil {
			return false
		}
		return err1.Error() == err2.Error()
	}

	return true
}
