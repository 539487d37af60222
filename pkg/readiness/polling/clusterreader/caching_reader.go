// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package clusterreader

import (
	"context"
	"fmt"
	"sync"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
)

// deploymentGroupKind is the only GroupKind this library polls, so the
// cache is keyed by namespace alone.
var deploymentGroupKind = appsv1.SchemeGroupVersion.WithKind("Deployment").GroupKind()

// NewCachingClusterReader returns a new instance of the
// CachingClusterReader. It will use the reader to fetch deployments
// from the cluster, while the mapper resolves the version for the
// apps/Deployment GroupKind. The set of refs is needed so the
// CachingClusterReader can figure out which namespaces it needs to
// cache when the Sync function is called. We only want to fetch the
// namespaces that are actually needed.
func NewCachingClusterReader(reader client.Reader, mapper meta.RESTMapper, refs object.DeploymentRefSet) (*CachingClusterReader, error) {
	mapping, err := mapper.RESTMapping(deploymentGroupKind)
	if err != nil {
		return nil, err
	}

	return &CachingClusterReader{
		reader:     reader,
		mapping:    mapping,
		namespaces: refs.Namespaces(),
	}, nil
}

// CachingClusterReader is an implementation of the ClusterReader
// interface that pre-fetches all deployments needed before every
// sweep, using one LIST call per namespace rather than one GET call
// per deployment. This can dramatically reduce the number of calls
// against the API server when waiting for many deployments in the
// same namespace.
type CachingClusterReader struct {
	mx sync.RWMutex

	// reader provides functions to read and list resources from the
	// cluster.
	reader client.Reader

	// mapping is the resolved REST mapping for apps/Deployment.
	mapping *meta.RESTMapping

	// namespaces contains every namespace that should be included in
	// the cache. Computed from the refs passed in when the
	// CachingClusterReader is created.
	namespaces []string

	// cache contains the deployments found in the cluster per
	// namespace. Before each sweep the engine calls the Sync function,
	// which is responsible for repopulating the cache.
	cache map[string]cacheEntry
}

type cacheEntry struct {
	deployments unstructured.UnstructuredList
	err         error
}

// Get looks up the deployment identified by the key in the cache. If
// the LIST call that covers the key's namespace failed during the last
// Sync, that error is returned so the caller can classify it as
// transient rather than as a missing deployment.
func (c *CachingClusterReader) Get(_ context.Context, key client.ObjectKey, obj *unstructured.Unstructured) error {
	c.mx.RLock()
	defer c.mx.RUnlock()

	entry, found := c.cache[key.Namespace]
	if !found {
		return fmt.Errorf("namespace %s not found in cache", key.Namespace)
	}
	if entry.err != nil {
		return entry.err
	}
	for _, u := range entry.deployments.Items {
		if u.GetName() == key.Name {
			obj.Object = u.Object
			return nil
		}
	}
	return errors.NewNotFound(c.mapping.Resource.GroupResource(), key.Name)
}

// Sync loops over all the namespaces and lists the deployments in
// each of them. Errors from the LIST calls are kept in the cache entry
// for the namespace and surfaced on subsequent calls to Get, so one
// unavailable namespace never aborts polling of the others.
func (c *CachingClusterReader) Sync(ctx context.Context) error {
	cache := make(map[string]cacheEntry, len(c.namespaces))
	for _, ns := range c.namespaces {
		gvk := c.mapping.GroupVersionKind
		var listObj unstructured.UnstructuredList
		listObj.SetGroupVersionKind(gvk.GroupVersion().WithKind(gvk.Kind + "List"))
		err := c.reader.List(ctx, &listObj, client.InNamespace(ns))
		if err != nil {
			// If the context has been cancelled, report that instead
			// of the (usually derived) list error.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			klog.V(4).Infof("failed to list deployments in namespace %s: %v", ns, err)
			cache[ns] = cacheEntry{err: err}
			continue
		}
		cache[ns] = cacheEntry{deployments: listObj}
	}
	c.mx.Lock()
	defer c.mx.Unlock()
	c.cache = cache
	return nil
}
