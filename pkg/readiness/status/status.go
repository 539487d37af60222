// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	// ReadyStatus means the number of ready replicas observed in the
	// cluster equals the desired replica count.
	ReadyStatus Status = "Ready"
	// InProgressStatus means the deployment exists, but the ready
	// replica count has not yet converged on the desired count.
	InProgressStatus Status = "InProgress"
	// NotFoundStatus means the deployment does not exist in the cluster.
	NotFoundStatus Status = "NotFound"
	// UnknownStatus means we were unable to determine status, usually
	// because the status could not be fetched or parsed.
	UnknownStatus Status = "Unknown"
)

// Status defines the readiness of a deployment as observed at a
// point in time.
type Status string

func (s Status) String() string {
	return string(s)
}

// Result contains the readiness computed for a single deployment
// together with the replica counts it was derived from.
type Result struct {
	// Status is the readiness of the deployment.
	Status Status
	// Message is a human readable description of the status.
	Message string
	// DesiredReplicas is the replica count from the deployment spec.
	DesiredReplicas int32
	// ReadyReplicas is the ready replica count from the deployment status.
	ReadyReplicas int32
}

// Compute finds the readiness of the passed-in deployment in
// unstructured format. A deployment is Ready once the observed ready
// replica count equals the desired count and both are non-negative.
// A ready count exceeding the desired count can show up transiently
// during scale-down; it is reported as InProgress, never as an error.
func Compute(u *unstructured.Unstructured) (*Result, error) {
	gk := u.GroupVersionKind().GroupKind()
	if gk.Group != "apps" || gk.Kind != "Deployment" {
		return nil, fmt.Errorf("expected resource with GroupKind apps/Deployment, got %s", gk.String())
	}

	desired, err := nestedInt32(u, 1, "spec", "replicas")
	if err != nil {
		return nil, err
	}
	ready, err := nestedInt32(u, 0, "status", "readyReplicas")
	if err != nil {
		return nil, err
	}

	return FromReplicaCounts(desired, ready), nil
}

// ComputeDeployment is the typed variant of Compute.
func ComputeDeployment(d *appsv1.Deployment) *Result {
	// The API server defaults spec.replicas to 1, but a typed object
	// built by hand may not have been through defaulting.
	desired := int32(1)
	if d.Spec.Replicas != nil {
		desired = *d.Spec.Replicas
	}
	return FromReplicaCounts(desired, d.Status.ReadyReplicas)
}

// FromReplicaCounts computes readiness directly from a desired and an
// observed ready replica count.
func FromReplicaCounts(desired, ready int32) *Result {
	res := &Result{
		DesiredReplicas: desired,
		ReadyReplicas:   ready,
	}
	switch {
	case desired < 0 || ready < 0:
		res.Status = UnknownStatus
		res.Message = fmt.Sprintf("Negative replica count: %d desired, %d ready", desired, ready)
	case ready == desired:
		res.Status = ReadyStatus
		res.Message = fmt.Sprintf("Deployment is ready. %d/%d replicas ready", ready, desired)
	default:
		res.Status = InProgressStatus
		res.Message = fmt.Sprintf("Deployment not ready. %d/%d replicas ready", ready, desired)
	}
	return res
}

// nestedInt32 reads an integer field from the unstructured content,
// returning def if the field is absent.
func nestedInt32(u *unstructured.Unstructured, def int32, fields ...string) (int32, error) {
	val, found, err := unstructured.NestedInt64(u.Object, fields...)
	if err != nil {
		return 0, fmt.Errorf("unable to read %v: %w", fields, err)
	}
	if !found {
		return def, nil
	}
	return int32(val), nil
}
