// Copyright 2022 Giant Swarm GmbH.
// SPDX-License-Identifier: Apache-2.0
//

package object

// DeploymentRefSetEquals returns true if the slice of refs in setA
// equals the slice of refs in setB, regardless of order.
func DeploymentRefSetEquals(setA []DeploymentRef, setB []DeploymentRef) bool {
	return DeploymentRefSet(setA).Equal(DeploymentRefSet(setB))
}

// DeploymentRefSet is an ordered list of DeploymentRefs with set
// semantics for comparison and diffing. Order is preserved so sweeps
// visit deployments in the order the caller listed them.
type DeploymentRefSet []DeploymentRef

func (setA DeploymentRefSet) Equal(setB DeploymentRefSet) bool {
	mapA := make(map[DeploymentRef]struct{}, len(setA))
	for _, a := range setA {
		mapA[a] = struct{}{}
	}
	mapB := make(map[DeploymentRef]struct{}, len(setB))
	for _, b := range setB {
		mapB[b] = struct{}{}
	}
	if len(mapA) != len(mapB) {
		return false
	}
	for b := range mapB {
		if _, exists := mapA[b]; !exists {
			return false
		}
	}
	return true
}

// Contains checks if the set contains the given ref.
func (setA DeploymentRefSet) Contains(ref DeploymentRef) bool {
	for _, a := range setA {
		if a == ref {
			return true
		}
	}
	return false
}

// Unique returns a new set with duplicates removed, keeping the
// first occurrence of each ref.
func (setA DeploymentRefSet) Unique() DeploymentRefSet {
	seen := make(map[DeploymentRef]struct{}, len(setA))
	unique := make(DeploymentRefSet, 0, len(setA))
	for _, a := range setA {
		if _, found := seen[a]; found {
			continue
		}
		seen[a] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}

// Remove returns a new set without the given ref, preserving the
// order of the remaining refs.
func (setA DeploymentRefSet) Remove(ref DeploymentRef) DeploymentRefSet {
	remaining := make(DeploymentRefSet, 0, len(setA))
	for _, a := range setA {
		if a != ref {
			remaining = append(remaining, a)
		}
	}
	return remaining
}

// Diff returns the refs that exist in setA, but do not exist
// in setB (A - B).
func (setA DeploymentRefSet) Diff(setB DeploymentRefSet) DeploymentRefSet {
	mapB := make(map[DeploymentRef]struct{}, len(setB))
	for _, b := range setB {
		mapB[b] = struct{}{}
	}
	diff := DeploymentRefSet{}
	for _, a := range setA {
		if _, found := mapB[a]; !found {
			diff = append(diff, a)
		}
	}
	return diff
}

// Union returns the refs that are the set of unique items from
// the merging of setA and setB.
func (setA DeploymentRefSet) Union(setB DeploymentRefSet) DeploymentRefSet {
	return append(setA, setB.Diff(setA)...).Unique()
}

// Namespaces returns the unique namespaces referenced by the set,
// in the order they first appear.
func (setA DeploymentRefSet) Namespaces() []string {
	seen := make(map[string]struct{}, len(setA))
	var namespaces []string
	for _, a := range setA {
		if _, found := seen[a.Namespace]; found {
			continue
		}
		seen[a.Namespace] = struct{}{}
		namespaces = append(namespaces, a.Namespace)
	}
	return namespaces
}
