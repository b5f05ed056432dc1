// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

package match

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps algorithm version strings to implementations. Multiple
// versions coexist, each writing its own cache rows, so new algorithms can
// be A/B compared without migrating old results.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates an empty algorithm registry.
func NewRegistry() *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
	}
}

// Register adds an algorithm under its version string. Registering the same
// version twice is a programming error and returns an error rather than
// silently replacing results already in the cache.
func (r *Registry) Register(alg Algorithm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	version := alg.Version()
	if _, exists := r.algorithms[version]; exists {
		return fmt.Errorf("algorithm %q already registered", version)
	}

	r.algorithms[version] = alg
	return nil
}

// Get returns the algorithm registered for the version, or
// ErrUnknownAlgorithm.
func (r *Registry) Get(version string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alg, ok := r.algorithms[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, version)
	}
	return alg, nil
}

// All returns every registered algorithm ordered by version.
func (r *Registry) All() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	algs := make([]Algorithm, 0, len(r.algorithms))
	for _, alg := range r.algorithms {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool {
		return algs[i].Version() < algs[j].Version()
	})
	return algs
}

// List returns descriptive info for every registered algorithm ordered by
// version.
func (r *Registry) List() []AlgorithmInfo {
	algs := r.All()

	infos := make([]AlgorithmInfo, 0, len(algs))
	for _, alg := range algs {
		infos = append(infos, AlgorithmInfo{
			Version:     alg.Version(),
			MaxScore:    alg.MaxScore(),
			Description: alg.Description(),
		})
	}
	return infos
}
