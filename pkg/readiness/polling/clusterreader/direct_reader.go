// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package clusterreader

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// DirectClusterReader is an implementation of the ClusterReader that
// just delegates all calls directly to the underlying reader. No caching.
type DirectClusterReader struct {
	Reader client.Reader
}

func (n *DirectClusterReader) Get(ctx context.Context, key client.ObjectKey, obj *unstructured.Unstructured) error {
	return n.Reader.Get(ctx, key, obj)
}

func (n *DirectClusterReader) Sync(_ context.Context) error {
	return nil
}
