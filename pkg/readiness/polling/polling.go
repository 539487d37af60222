// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package polling

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/clusterreader"
	"github.com/giantswarm/muster/pkg/readiness/polling/engine"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/polling/statusreaders"
)

// NewStatusPoller creates a new StatusPoller using the given reader and
// mapper. The StatusPoller will use the reader for all calls to the
// cluster. If useCache is set to true, the poller fetches all needed
// deployments with one LIST call per namespace before each sweep
// instead of one GET call per deployment.
func NewStatusPoller(reader client.Reader, mapper meta.RESTMapper, useCache bool) *StatusPoller {
	return &StatusPoller{
		engine: &engine.PollerEngine{
			Reader:               reader,
			Mapper:               mapper,
			StatusReader:         statusreaders.NewDeploymentStatusReader(mapper),
			ClusterReaderFactory: clusterReaderFactoryFunc(useCache),
		},
	}
}

// StatusPoller provides functionality for polling a cluster for the
// readiness of a set of deployments.
type StatusPoller struct {
	engine *engine.PollerEngine
}

// Poll will create a new poller runner that will poll all the
// deployments provided and report their readiness back on the event
// channel returned. The runner can be cancelled at any time by
// cancelling the context passed in. Polling stops by itself once every
// deployment has been observed Ready, signalled by a CompletedEvent
// before the channel closes.
func (s *StatusPoller) Poll(ctx context.Context, refs object.DeploymentRefSet, options Options) <-chan event.Event {
	return s.engine.Poll(ctx, refs, engine.Options{
		PollInterval: options.PollInterval,
	})
}

// Options contains the different parameters that can be used to adjust
// the behavior of the StatusPoller.
type Options struct {
	// PollInterval defines how often the underlying engine polls the
	// cluster for the latest state of the deployments.
	PollInterval time.Duration
}

// clusterReaderFactoryFunc returns a factory function for creating an
// instance of a ClusterReader. This function is used by the
// StatusPoller to create a ClusterReader for each call to Poll. The
// decision for which implementation of the ClusterReader interface
// should be used is made when the StatusPoller is created rather than
// based on information passed in to the factory function.
func clusterReaderFactoryFunc(useCache bool) engine.ClusterReaderFactoryFunc {
	return func(r client.Reader, mapper meta.RESTMapper, refs object.DeploymentRefSet) (engine.ClusterReader, error) {
		if useCache {
			return clusterreader.NewCachingClusterReader(r, mapper, refs)
		}
		return &clusterreader.DirectClusterReader{Reader: r}, nil
	}
}
