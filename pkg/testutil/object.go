// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0
//
// The testutil package houses utility functions for testing.

package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/kubectl/pkg/scheme"

	"github.com/giantswarm/muster/pkg/object"
)

var codec = scheme.Codecs.LegacyCodec(scheme.Scheme.PrioritizedVersionsAllGroups()...)

// Unstructured translates the passed object config string into an
// object in Unstructured format. The mutators modify the config
// yaml before returning the object.
func Unstructured(t *testing.T, manifest string, mutators ...Mutator) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	err := runtime.DecodeInto(codec, []byte(manifest), u)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	for _, m := range mutators {
		m.Mutate(u)
	}
	return u
}

// Mutator interface defines a function to update an object
// while translating it into Unstructured format from yaml config.
type Mutator interface {
	Mutate(u *unstructured.Unstructured)
}

// ToDeploymentRef translates deployment yaml config into a DeploymentRef.
func ToDeploymentRef(t *testing.T, manifest string) object.DeploymentRef {
	obj := Unstructured(t, manifest)
	ref, err := object.NewDeploymentRef(obj.GetNamespace(), obj.GetName())
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return ref
}

// ReadyReplicas returns a Mutator which sets status.readyReplicas on
// the object.
func ReadyReplicas(t *testing.T, readyReplicas int) Mutator {
	return readyReplicasMutator{
		t:             t,
		readyReplicas: readyReplicas,
	}
}

type readyReplicasMutator struct {
	t             *testing.T
	readyReplicas int
}

func (m readyReplicasMutator) Mutate(u *unstructured.Unstructured) {
	err := unstructured.SetNestedField(u.Object, int64(m.readyReplicas), "status", "readyReplicas")
	if !assert.NoError(m.t, err) {
		m.t.FailNow()
	}
}
