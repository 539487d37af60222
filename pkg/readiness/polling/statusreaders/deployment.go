// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package statusreaders

import (
	"context"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/engine"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

// NewDeploymentStatusReader returns a StatusReader that fetches a
// deployment in unstructured format through the ClusterReader and
// computes its readiness with the status package. The mapper is used
// to resolve the version for the apps/Deployment GroupKind.
func NewDeploymentStatusReader(mapper meta.RESTMapper) engine.StatusReader {
	return &deploymentStatusReader{
		mapper: mapper,
	}
}

type deploymentStatusReader struct {
	mapper meta.RESTMapper
}

var _ engine.StatusReader = &deploymentStatusReader{}

func (d *deploymentStatusReader) ReadStatus(ctx context.Context, reader engine.ClusterReader, ref object.DeploymentRef) *event.DeploymentStatus {
	gvk, err := d.gvk()
	if err != nil {
		return errStatus(ref, err)
	}

	var u unstructured.Unstructured
	u.SetGroupVersionKind(gvk)
	key := client.ObjectKey{Namespace: ref.Namespace, Name: ref.Name}
	err = reader.Get(ctx, key, &u)
	if errors.IsNotFound(err) {
		return &event.DeploymentStatus{
			Ref:        ref,
			Status:     status.NotFoundStatus,
			Message:    "Deployment not found",
			ObservedAt: time.Now(),
		}
	}
	if err != nil {
		return errStatus(ref, err)
	}

	res, err := status.Compute(&u)
	if err != nil {
		return errStatus(ref, err)
	}

	return &event.DeploymentStatus{
		Ref:             ref,
		Status:          res.Status,
		Message:         res.Message,
		DesiredReplicas: res.DesiredReplicas,
		ReadyReplicas:   res.ReadyReplicas,
		ObservedAt:      time.Now(),
		Resource:        &u,
	}
}

// gvk resolves the version for apps/Deployment through the mapper.
func (d *deploymentStatusReader) gvk() (schema.GroupVersionKind, error) {
	gk := appsv1.SchemeGroupVersion.WithKind("Deployment").GroupKind()
	mapping, err := d.mapper.RESTMapping(gk)
	if err != nil {
		return schema.GroupVersionKind{}, err
	}
	return mapping.GroupVersionKind, nil
}

// errStatus constructs the snapshot for a transient fetch or compute
// error. The deployment stays pending; the error rides along so the
// caller can report the last-seen problem on timeout.
func errStatus(ref object.DeploymentRef, err error) *event.DeploymentStatus {
	return &event.DeploymentStatus{
		Ref:        ref,
		Status:     status.UnknownStatus,
		Message:    err.Error(),
		ObservedAt: time.Now(),
		Error:      err,
	}
}
