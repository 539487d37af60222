// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

func TestCompute(t *testing.T) {
	testCases := map[string]struct {
		manifest        string
		expectErr       bool
		expectedStatus  Status
		expectedDesired int32
		expectedReady   int32
	}{
		"deployment with all replicas ready": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: 2
status:
  readyReplicas: 2
`,
			expectedStatus:  ReadyStatus,
			expectedDesired: 2,
			expectedReady:   2,
		},
		"deployment with no replicas ready": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: 2
status:
  readyReplicas: 0
`,
			expectedStatus:  InProgressStatus,
			expectedDesired: 2,
			expectedReady:   0,
		},
		"deployment without status": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: 4
`,
			expectedStatus:  InProgressStatus,
			expectedDesired: 4,
			expectedReady:   0,
		},
		"spec.replicas defaults to one": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
status:
  readyReplicas: 1
`,
			expectedStatus:  ReadyStatus,
			expectedDesired: 1,
			expectedReady:   1,
		},
		"scaled to zero": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: 0
`,
			expectedStatus:  ReadyStatus,
			expectedDesired: 0,
			expectedReady:   0,
		},
		"more ready replicas than desired": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: 2
status:
  readyReplicas: 3
`,
			expectedStatus:  InProgressStatus,
			expectedDesired: 2,
			expectedReady:   3,
		},
		"negative desired replicas": {
			manifest: `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
  namespace: muster
spec:
  replicas: -1
`,
			expectedStatus:  UnknownStatus,
			expectedDesired: -1,
			expectedReady:   0,
		},
		"not a deployment": {
			manifest: `
apiVersion: v1
kind: Service
metadata:
  name: muster
  namespace: muster
`,
			expectErr: true,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			u := yamlToUnstructured(t, tc.manifest)

			res, err := Compute(u)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.expectedStatus, res.Status)
			assert.Equal(t, tc.expectedDesired, res.DesiredReplicas)
			assert.Equal(t, tc.expectedReady, res.ReadyReplicas)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestComputeDeployment(t *testing.T) {
	replicas := int32(3)

	testCases := map[string]struct {
		deployment     *appsv1.Deployment
		expectedStatus Status
	}{
		"ready deployment": {
			deployment: &appsv1.Deployment{
				Spec: appsv1.DeploymentSpec{
					Replicas: &replicas,
				},
				Status: appsv1.DeploymentStatus{
					ReadyReplicas: 3,
				},
			},
			expectedStatus: ReadyStatus,
		},
		"deployment still rolling out": {
			deployment: &appsv1.Deployment{
				Spec: appsv1.DeploymentSpec{
					Replicas: &replicas,
				},
				Status: appsv1.DeploymentStatus{
					ReadyReplicas: 1,
				},
			},
			expectedStatus: InProgressStatus,
		},
		"nil replicas defaults to one": {
			deployment: &appsv1.Deployment{
				Status: appsv1.DeploymentStatus{
					ReadyReplicas: 1,
				},
			},
			expectedStatus: ReadyStatus,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			res := ComputeDeployment(tc.deployment)
			assert.Equal(t, tc.expectedStatus, res.Status)
		})
	}
}

func yamlToUnstructured(t *testing.T, yml string) *unstructured.Unstructured {
	jsonBytes, err := yaml.YAMLToJSON([]byte(yml))
	require.NoError(t, err)
	u := &unstructured.Unstructured{}
	require.NoError(t, u.UnmarshalJSON(jsonBytes))
	return u
}
