// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package e2eutil

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/onsi/gomega"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// RandomString returns a random alphanumeric string with the given
// prefix, suitable for namespace and resource names.
func RandomString(prefix string) string {
	randomSuffix := randomString(8)
	return fmt.Sprintf("%s%s", prefix, randomSuffix)
}

func randomString(n int) string {
	charset := "abcdefghijklmnopqrstuvwxyz0123456789"
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		b.WriteByte(charset[idx.Int64()])
	}
	return b.String()
}

// CreateRandomNamespace creates a namespace with a random name and
// returns it.
func CreateRandomNamespace(ctx context.Context, c client.Client) *v1.Namespace {
	namespaceName := RandomString("readiness-e2e-")
	namespace := &v1.Namespace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Namespace",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: namespaceName,
		},
	}
	err := c.Create(ctx, namespace)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return namespace
}

// DeleteNamespace deletes the given namespace and ignores whether the
// deletion has completed by the time the call returns.
func DeleteNamespace(ctx context.Context, c client.Client, namespace *v1.Namespace) {
	err := c.Delete(ctx, namespace)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

// ManifestToUnstructured parses a single YAML manifest.
func ManifestToUnstructured(manifest []byte) *unstructured.Unstructured {
	u := make(map[string]interface{})
	err := yaml.Unmarshal(manifest, &u)
	if err != nil {
		panic(fmt.Errorf("failed to parse manifest: %w", err))
	}
	return &unstructured.Unstructured{
		Object: u,
	}
}

// WithReplicas sets spec.replicas on the given object.
func WithReplicas(obj *unstructured.Unstructured, replicas int) *unstructured.Unstructured {
	err := unstructured.SetNestedField(obj.Object, int64(replicas), "spec", "replicas")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return obj
}

// WithNamespace sets metadata.namespace on the given object.
func WithNamespace(obj *unstructured.Unstructured, namespace string) *unstructured.Unstructured {
	obj.SetNamespace(namespace)
	return obj
}
