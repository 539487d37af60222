// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"testing"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling/engine"
	"github.com/giantswarm/muster/pkg/readiness/polling/event"
	"github.com/giantswarm/muster/pkg/readiness/status"
)

func YamlToUnstructured(t *testing.T, yml string) *unstructured.Unstructured {
	m := make(map[string]interface{})
	err := yaml.Unmarshal([]byte(yml), &m)
	if err != nil {
		t.Fatalf("error parsing yaml: %v", err)
		return nil
	}
	return &unstructured.Unstructured{Object: m}
}

// NewStaticStatusReader returns a StatusReader that serves a scripted
// sequence of statuses per deployment: the nth call for a ref returns
// the nth status in its script, and the last entry repeats once the
// script is exhausted.
func NewStaticStatusReader(script map[object.DeploymentRef][]status.Status) *StaticStatusReader {
	return &StaticStatusReader{
		script: script,
		count:  make(map[object.DeploymentRef]int),
	}
}

type StaticStatusReader struct {
	script map[object.DeploymentRef][]status.Status
	count  map[object.DeploymentRef]int

	// Err, when set, is attached to every snapshot served.
	Err error
}

var _ engine.StatusReader = &StaticStatusReader{}

func (f *StaticStatusReader) ReadStatus(_ context.Context, _ engine.ClusterReader, ref object.DeploymentRef) *event.DeploymentStatus {
	statuses, found := f.script[ref]
	if !found || len(statuses) == 0 {
		return &event.DeploymentStatus{
			Ref:    ref,
			Status: status.UnknownStatus,
			Error:  f.Err,
		}
	}
	i := f.count[ref]
	f.count[ref]++
	if i >= len(statuses) {
		i = len(statuses) - 1
	}
	return &event.DeploymentStatus{
		Ref:    ref,
		Status: statuses[i],
		Error:  f.Err,
	}
}
