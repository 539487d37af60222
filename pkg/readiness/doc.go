// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0

// Package readiness contains libraries for waiting on the readiness
// of Deployments in a Kubernetes cluster, i.e. for the observed number
// of ready replicas to reach the desired replica count.
//
// The typical entry point is the wait package, which blocks until all
// the given deployments are ready, the timeout expires, or the caller
// cancels:
//
//   poller := polling.NewStatusPoller(reader, mapper, false)
//   result, err := wait.WaitForReady(ctx, poller, refs, wait.Options{
//       Timeout:      2 * time.Minute,
//       PollInterval: 2 * time.Second,
//   })
//
// The polling package underneath exposes the event-driven engine for
// callers that want per-sweep updates rather than a blocking call.
package readiness
