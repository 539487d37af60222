// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

// Package deployments provides a typed convenience layer on top of the
// readiness packages for callers that hold a plain client-go clientset
// rather than a controller-runtime reader. Its WaitForDeploymentsToRun
// function mirrors the helper our acceptance tests historically used:
// wait for a list of named deployments in one namespace to run within
// a time budget.
package deployments

import (
	"context"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	appsv1client "k8s.io/client-go/kubernetes/typed/apps/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling"
	"github.com/giantswarm/muster/pkg/readiness/polling/engine"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
	"github.com/giantswarm/muster/pkg/readiness/wait"
)

// DeploymentGetter is the read operation the poller consumes. It
// returns the desired and ready replica counts for a single
// deployment. Transport, auth and wire format are the implementation's
// business.
type DeploymentGetter interface {
	GetDeployment(ctx context.Context, namespace, name string) (desiredReplicas, readyReplicas int32, err error)
}

// NewClientsetGetter returns a DeploymentGetter backed by a typed
// client-go apps/v1 client.
func NewClientsetGetter(client appsv1client.DeploymentsGetter) DeploymentGetter {
	return &clientsetGetter{client: client}
}

type clientsetGetter struct {
	client appsv1client.DeploymentsGetter
}

func (c *clientsetGetter) GetDeployment(ctx context.Context, namespace, name string) (int32, int32, error) {
	d, err := c.client.Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return 0, 0, err
	}
	res := status.ComputeDeployment(d)
	return res.DesiredReplicas, res.ReadyReplicas, nil
}

// NewGetterPoller returns a wait.Poller that reads deployment status
// through the given getter instead of a controller-runtime reader.
func NewGetterPoller(getter DeploymentGetter) wait.Poller {
	return &getterPoller{
		engine: &engine.PollerEngine{
			StatusReader:         &getterStatusReader{getter: getter},
			ClusterReaderFactory: noopClusterReaderFactory(),
		},
	}
}

type getterPoller struct {
	engine *engine.PollerEngine
}

func (p *getterPoller) Poll(ctx context.Context, refs object.DeploymentRefSet, options polling.Options) <-chan event.Event {
	return p.engine.Poll(ctx, refs, engine.Options{
		PollInterval: options.PollInterval,
	})
}

// getterStatusReader adapts a DeploymentGetter to the engine's
// StatusReader interface. The ClusterReader is unused since the getter
// brings its own transport.
type getterStatusReader struct {
	getter DeploymentGetter
}

var _ engine.StatusReader = &getterStatusReader{}

func (g *getterStatusReader) ReadStatus(ctx context.Context, _ engine.ClusterReader, ref object.DeploymentRef) *event.DeploymentStatus {
	desired, ready, err := g.getter.GetDeployment(ctx, ref.Namespace, ref.Name)
	if apierrors.IsNotFound(err) {
		return &event.DeploymentStatus{
			Ref:        ref,
			Status:     status.NotFoundStatus,
			Message:    "Deployment not found",
			ObservedAt: time.Now(),
		}
	}
	if err != nil {
		return &event.DeploymentStatus{
			Ref:        ref,
			Status:     status.UnknownStatus,
			Message:    err.Error(),
			ObservedAt: time.Now(),
			Error:      err,
		}
	}
	res := status.FromReplicaCounts(desired, ready)
	return &event.DeploymentStatus{
		Ref:             ref,
		Status:          res.Status,
		Message:         res.Message,
		DesiredReplicas: res.DesiredReplicas,
		ReadyReplicas:   res.ReadyReplicas,
		ObservedAt:      time.Now(),
	}
}

// WaitForDeploymentsToRun waits for all named deployments in the given
// namespace to have as many ready replicas as desired. It blocks for
// at most timeout and sweeps every wait.DefaultPollInterval. See
// wait.WaitForReady for the error contract.
func WaitForDeploymentsToRun(ctx context.Context, getter DeploymentGetter, names []string, namespace string, timeout time.Duration) (*wait.Result, error) {
	refs := make(object.DeploymentRefSet, 0, len(names))
	for _, name := range names {
		ref, err := object.NewDeploymentRef(namespace, name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return wait.WaitForReady(ctx, NewGetterPoller(getter), refs, wait.Options{
		Timeout:      timeout,
		PollInterval: wait.DefaultPollInterval,
	})
}

func noopClusterReaderFactory() engine.ClusterReaderFactory {
	return engine.ClusterReaderFactoryFunc(func(_ client.Reader, _ meta.RESTMapper, _ object.DeploymentRefSet) (engine.ClusterReader, error) {
		return noopClusterReader{}, nil
	})
}

// noopClusterReader satisfies the engine's ClusterReader interface for
// pollers whose status reader brings its own transport.
type noopClusterReader struct{}

func (noopClusterReader) Get(_ context.Context, _ client.ObjectKey, _ *unstructured.Unstructured) error {
	return nil
}

func (noopClusterReader) Sync(_ context.Context) error {
	return nil
}
