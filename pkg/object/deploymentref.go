// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0
//
// DeploymentRef is the minimal set of information needed to
// uniquely identify a Deployment within a cluster:
//
//   Namespace
//   Name
//
// The GroupKind is implied, so a ref stays valid across apps
// API version bumps. Refs are used as map keys throughout the
// readiness packages, so the type must stay comparable.

package object

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// DeploymentRef organizes and stores the identifying information
// for a Deployment. It is immutable once created.
type DeploymentRef struct {
	Namespace string
	Name      string
}

// NewDeploymentRef returns a DeploymentRef filled with the passed
// values. This function normalizes and validates the passed fields
// and returns an error for bad parameters.
func NewDeploymentRef(namespace, name string) (DeploymentRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DeploymentRef{}, fmt.Errorf("empty name for deployment")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return DeploymentRef{}, fmt.Errorf("empty namespace for deployment %q", name)
	}
	return DeploymentRef{
		Namespace: namespace,
		Name:      name,
	}, nil
}

// ParseDeploymentRef parses a ref in "namespace/name" format, the
// inverse of String.
func ParseDeploymentRef(s string) (DeploymentRef, error) {
	index := strings.Index(s, "/")
	if index == -1 {
		return DeploymentRef{}, fmt.Errorf("unable to parse deployment ref: %s", s)
	}
	namespace := s[:index]
	name := s[index+1:]
	if strings.Contains(name, "/") {
		return DeploymentRef{}, fmt.Errorf("too many fields within: %s", s)
	}
	return NewDeploymentRef(namespace, name)
}

// Equals compares two DeploymentRefs and returns true if they are equal.
func (r *DeploymentRef) Equals(other *DeploymentRef) bool {
	if other == nil {
		return false
	}
	return *r == *other
}

// String creates a "namespace/name" string version of the DeploymentRef.
func (r DeploymentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
}

// Hash returns a hash of the sorted strings from the set of refs,
// or an error if one occurred. Used to quickly compare wait lists.
func Hash(refs []DeploymentRef) (string, error) {
	refStrs := []string{}
	for _, ref := range refs {
		refStrs = append(refStrs, ref.String())
	}
	hashInt, err := calcHash(refStrs)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(hashInt), 16), nil
}

// calcHash returns an unsigned int32 representing the hash of the
// ref strings. If there is an error writing bytes to the hash, then
// the error is returned; nil is returned otherwise.
func calcHash(refs []string) (uint32, error) {
	sort.Strings(refs)
	h := fnv.New32a()
	for _, ref := range refs {
		_, err := h.Write([]byte(ref))
		if err != nil {
			return uint32(0), err
		}
	}
	return h.Sum32(), nil
}
