// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
)

// StatusReader is the main interface for computing readiness for
// deployments. A status reader fetches the deployment identified by a
// ref through a ClusterReader and computes a readiness snapshot for
// it. Fetch and compute problems are reported inside the returned
// DeploymentStatus rather than as a separate error, so a single bad
// deployment never stops the sweep.
type StatusReader interface {
	// ReadStatus will fetch the deployment identified by the given ref
	// from the cluster and return a DeploymentStatus that contains
	// the latest readiness snapshot for it.
	ReadStatus(ctx context.Context, reader ClusterReader, ref object.DeploymentRef) *event.DeploymentStatus
}

// ClusterReader is the interface for fetching deployments from a
// cluster. The Sync function is called by the engine before every
// sweep, which allows implementations to pre-fetch in bulk.
type ClusterReader interface {
	// Get fetches the resource identified by the key into obj. The GVK
	// of obj must be set before the call.
	Get(ctx context.Context, key client.ObjectKey, obj *unstructured.Unstructured) error

	// Sync is called by the engine before every sweep. An error from
	// Sync is treated as transient for the deployments it covers.
	Sync(ctx context.Context) error
}

// ClusterReaderFactory is an interface that can be implemented to
// provide custom ClusterReader implementations to the engine. Since
// ClusterReaders can be stateful, a new one is created for every call
// to Poll.
type ClusterReaderFactory interface {
	New(reader client.Reader, mapper meta.RESTMapper, refs object.DeploymentRefSet) (ClusterReader, error)
}

// ClusterReaderFactoryFunc is a function implementation of
// ClusterReaderFactory.
type ClusterReaderFactoryFunc func(client.Reader, meta.RESTMapper, object.DeploymentRefSet) (ClusterReader, error)

func (f ClusterReaderFactoryFunc) New(reader client.Reader, mapper meta.RESTMapper, refs object.DeploymentRefSet) (ClusterReader, error) {
	return f(reader, mapper, refs)
}
