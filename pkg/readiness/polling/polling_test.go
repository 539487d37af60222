// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package polling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
	"github.com/giantswarm/muster/pkg/testutil"
)

var deploymentGVK = appsv1.SchemeGroupVersion.WithKind("Deployment")

var readyDeploymentManifest = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
  generation: 1
spec:
  replicas: 1
status:
  observedGeneration: 1
  readyReplicas: 1
`

func TestStatusPollerAgainstFakeCluster(t *testing.T) {
	testCases := map[string]struct {
		useCache bool
	}{
		"direct cluster reader": {
			useCache: false,
		},
		"caching cluster reader": {
			useCache: true,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			deployment := testutil.Unstructured(t, readyDeploymentManifest)
			fakeClient := fake.NewClientBuilder().
				WithScheme(scheme.Scheme).
				WithObjects(deployment).
				Build()
			fakeMapper := testutil.NewFakeRESTMapper(deploymentGVK)

			poller := NewStatusPoller(fakeClient, fakeMapper, tc.useCache)

			eventChannel := poller.Poll(ctx, object.DeploymentRefSet{
				{Namespace: "muster", Name: "muster"},
			}, Options{
				PollInterval: time.Second,
			})

			var eventTypes []event.Type
			for e := range eventChannel {
				eventTypes = append(eventTypes, e.Type)
				if e.Type == event.ResourceUpdateEvent {
					assert.Equal(t, status.ReadyStatus, e.Resource.Status)
					assert.Equal(t, int32(1), e.Resource.ReadyReplicas)
				}
			}

			assert.Equal(t, []event.Type{
				event.ResourceUpdateEvent,
				event.CompletedEvent,
			}, eventTypes)
		})
	}
}

func TestStatusPollerValidationError(t *testing.T) {
	fakeClient := fake.NewClientBuilder().WithScheme(scheme.Scheme).Build()
	fakeMapper := testutil.NewFakeRESTMapper(deploymentGVK)

	poller := NewStatusPoller(fakeClient, fakeMapper, false)

	eventChannel := poller.Poll(context.Background(), object.DeploymentRefSet{}, Options{
		PollInterval: time.Second,
	})

	var events []event.Event
	for e := range eventChannel {
		events = append(events, e)
	}

	if assert.Len(t, events, 1) {
		assert.Equal(t, event.ErrorEvent, events[0].Type)
		assert.Error(t, events[0].Error)
	}
}
