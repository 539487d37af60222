// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"
	"k8s.io/kubectl/pkg/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"

	"github.com/giantswarm/muster/pkg/object"
	"github.com/giantswarm/muster/pkg/readiness/polling"
	"github.com/giantswarm/muster/pkg/readiness/status"
	"github.com/giantswarm/muster/pkg/readiness/wait"
	"github.com/giantswarm/muster/test/e2e/e2eutil"
)

// Parse optional logging flags
// Ex: ginkgo ./test/e2e/... -- -v=5
// Allow init for e2e test (not imported by external code)
// nolint:gochecknoinits
func init() {
	klog.InitFlags(nil)
	klog.SetOutput(GinkgoWriter)
}

var deploymentManifest = []byte(`
apiVersion: apps/v1
kind: Deployment
metadata:
  name: muster
spec:
  replicas: 2
  selector:
    matchLabels:
      app: muster-e2e
  template:
    metadata:
      labels:
        app: muster-e2e
    spec:
      containers:
      - name: nginx
        image: nginx:1.21
`)

var defaultTestTimeout = 5 * time.Minute
var defaultWaitTimeout = 2 * time.Minute

var _ = Describe("WaitForReady", func() {

	var c client.Client
	var poller *polling.StatusPoller

	BeforeEach(func() {
		cfg, err := ctrl.GetConfig()
		Expect(err).NotTo(HaveOccurred())

		mapper, err := apiutil.NewDynamicRESTMapper(cfg)
		Expect(err).NotTo(HaveOccurred())

		c, err = client.New(cfg, client.Options{
			Scheme: scheme.Scheme,
			Mapper: mapper,
		})
		Expect(err).NotTo(HaveOccurred())

		poller = polling.NewStatusPoller(c, mapper, true)
	})

	Context("deployment in a fresh namespace", func() {
		var namespace *v1.Namespace
		var deployment *unstructured.Unstructured
		var ctx context.Context
		var cancel context.CancelFunc

		BeforeEach(func() {
			ctx, cancel = context.WithTimeout(context.Background(), defaultTestTimeout)
			namespace = e2eutil.CreateRandomNamespace(ctx, c)
			deployment = e2eutil.WithNamespace(
				e2eutil.ManifestToUnstructured(deploymentManifest), namespace.GetName())
		})

		AfterEach(func() {
			e2eutil.DeleteNamespace(ctx, c, namespace)
			cancel()
		})

		It("reports ready once all replicas are up", func() {
			err := c.Create(ctx, deployment)
			Expect(err).NotTo(HaveOccurred())

			ref := object.DeploymentRef{
				Namespace: namespace.GetName(),
				Name:      deployment.GetName(),
			}

			result, err := wait.WaitForReady(ctx, poller, object.DeploymentRefSet{ref}, wait.Options{
				Timeout:      defaultWaitTimeout,
				PollInterval: 2 * time.Second,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Satisfied).To(HaveLen(1))
			Expect(result.Satisfied[0].Ref).To(Equal(ref))
			Expect(result.Satisfied[0].Status).To(Equal(status.ReadyStatus))
			Expect(result.Satisfied[0].ReadyReplicas).To(Equal(int32(2)))
		})

		It("times out when a deployment never shows up", func() {
			ref := object.DeploymentRef{
				Namespace: namespace.GetName(),
				Name:      "does-not-exist",
			}

			result, err := wait.WaitForReady(ctx, poller, object.DeploymentRefSet{ref}, wait.Options{
				Timeout:      10 * time.Second,
				PollInterval: 2 * time.Second,
			})
			Expect(result).To(BeNil())

			timeoutErr, ok := wait.IsTimeoutError(err)
			Expect(ok).To(BeTrue(), "expected a TimeoutError, got %v", err)
			Expect(timeoutErr.Pending).To(HaveLen(1))
			Expect(timeoutErr.Pending[0].Ref).To(Equal(ref))
			Expect(timeoutErr.Pending[0].LastStatus).To(Equal(status.NotFoundStatus))
		})

		It("reports cancellation distinct from timeout", func() {
			ref := object.DeploymentRef{
				Namespace: namespace.GetName(),
				Name:      "does-not-exist",
			}

			waitCtx, waitCancel := context.WithCancel(ctx)
			go func() {
				time.Sleep(3 * time.Second)
				waitCancel()
			}()

			result, err := wait.WaitForReady(waitCtx, poller, object.DeploymentRefSet{ref}, wait.Options{
				Timeout:      defaultWaitTimeout,
				PollInterval: 2 * time.Second,
			})
			Expect(result).To(BeNil())

			_, ok := wait.IsCanceledError(err)
			Expect(ok).To(BeTrue(), "expected a CanceledError, got %v", err)
		})
	})
})
