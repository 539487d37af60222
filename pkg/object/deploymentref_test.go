// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"testing"
)

func TestNewDeploymentRef(t *testing.T) {
	testCases := map[string]struct {
		namespace string
		name      string
		expectErr bool
		expected  DeploymentRef
	}{
		"simple ref": {
			namespace: "muster",
			name:      "muster",
			expected: DeploymentRef{
				Namespace: "muster",
				Name:      "muster",
			},
		},
		"fields are trimmed": {
			namespace: " default ",
			name:      " nginx ",
			expected: DeploymentRef{
				Namespace: "default",
				Name:      "nginx",
			},
		},
		"empty name": {
			namespace: "default",
			name:      "",
			expectErr: true,
		},
		"whitespace name": {
			namespace: "default",
			name:      "   ",
			expectErr: true,
		},
		"empty namespace": {
			namespace: "",
			name:      "nginx",
			expectErr: true,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			ref, err := NewDeploymentRef(tc.namespace, tc.name)
			if tc.expectErr {
				if err == nil {
					t.Errorf("expected error, but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref != tc.expected {
				t.Errorf("expected ref %v, got %v", tc.expected, ref)
			}
		})
	}
}

func TestParseDeploymentRef(t *testing.T) {
	testCases := map[string]struct {
		input     string
		expectErr bool
		expected  DeploymentRef
	}{
		"namespace and name": {
			input: "muster/muster",
			expected: DeploymentRef{
				Namespace: "muster",
				Name:      "muster",
			},
		},
		"round trip": {
			input: DeploymentRef{Namespace: "kube-system", Name: "coredns"}.String(),
			expected: DeploymentRef{
				Namespace: "kube-system",
				Name:      "coredns",
			},
		},
		"missing separator": {
			input:     "muster",
			expectErr: true,
		},
		"too many fields": {
			input:     "a/b/c",
			expectErr: true,
		},
		"empty name": {
			input:     "default/",
			expectErr: true,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			ref, err := ParseDeploymentRef(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("expected error, but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref != tc.expected {
				t.Errorf("expected ref %v, got %v", tc.expected, ref)
			}
		})
	}
}

func TestEquals(t *testing.T) {
	refA := DeploymentRef{Namespace: "default", Name: "a"}
	refA2 := DeploymentRef{Namespace: "default", Name: "a"}
	refB := DeploymentRef{Namespace: "default", Name: "b"}

	if !refA.Equals(&refA2) {
		t.Errorf("expected refs to be equal")
	}
	if refA.Equals(&refB) {
		t.Errorf("expected refs to not be equal")
	}
	if refA.Equals(nil) {
		t.Errorf("expected comparison with nil to not be equal")
	}
}

func TestHash(t *testing.T) {
	refs := []DeploymentRef{
		{Namespace: "default", Name: "a"},
		{Namespace: "default", Name: "b"},
	}
	reordered := []DeploymentRef{
		{Namespace: "default", Name: "b"},
		{Namespace: "default", Name: "a"},
	}

	actual, err := Hash(refs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := Hash(reordered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actual != other {
		t.Errorf("expected hash to be independent of order; got %s and %s", actual, other)
	}
}
