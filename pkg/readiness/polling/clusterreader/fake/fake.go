// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package fake

import (
	"context"

	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

func NewNoopClusterReader() *ClusterReader {
	return &ClusterReader{}
}

// ClusterReader is a fake implementation of the engine.ClusterReader
// interface for testing. Resources served by Get are keyed by
// namespace/name; GetErr and SyncErr, when set, win over everything
// else. A nil GetResource map makes every Get a no-op.
type ClusterReader struct {
	GetResource map[client.ObjectKey]*unstructured.Unstructured
	GetErr      error

	SyncCount int
	SyncErr   error
}

func (f *ClusterReader) Get(_ context.Context, key client.ObjectKey, obj *unstructured.Unstructured) error {
	if f.GetErr != nil {
		return f.GetErr
	}
	if f.GetResource == nil {
		return nil
	}
	if u, found := f.GetResource[key]; found {
		obj.Object = u.Object
		return nil
	}
	return errors.NewNotFound(schema.GroupResource{Group: "apps", Resource: "deployments"}, key.Name)
}

func (f *ClusterReader) Sync(_ context.Context) error {
	f.SyncCount++
	return f.SyncErr
}
