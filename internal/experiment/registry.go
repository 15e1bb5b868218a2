package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/integrators"
)

type Registry struct {
	scenarios   map[string]Scenario
	integrators map[string]func(dynamo.Options) dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios:   make(map[string]Scenario),
		integrators: make(map[string]func(dynamo.Options) dynamo.Integrator),
	}

	r.scenarios["free"] = freeScenario
	r.scenarios["constant"] = constantScenario
	r.scenarios["harmonic"] = harmonicScenario
	r.scenarios["kepler"] = keplerScenario
	r.scenarios["nbody"] = nbodyScenario
	r.scenarios["galaxy"] = galaxyScenario
	r.scenarios["dimer"] = dimerScenario
	r.scenarios["chain"] = chainScenario
	r.scenarios["doublewell"] = doubleWellScenario

	r.integrators["verlet"] = func(o dynamo.Options) dynamo.Integrator { return integrators.NewVelocityVerlet(o) }
	r.integrators["leapfrog"] = func(o dynamo.Options) dynamo.Integrator { return integrators.NewLeapfrog(o) }
	r.integrators["euler"] = func(o dynamo.Options) dynamo.Integrator { return integrators.NewEuler(o) }
	r.integrators["symplectic_euler"] = func(o dynamo.Options) dynamo.Integrator { return integrators.NewSymplecticEuler(o) }
	r.integrators["rk4"] = func(o dynamo.Options) dynamo.Integrator { return integrators.NewRK4(o) }

	return r
}

// RegisterScenario adds or replaces a scenario.
func (r *Registry) RegisterScenario(name string, s Scenario) {
	r.scenarios[name] = s
}

func (r *Registry) GetScenario(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) GetIntegrator(name string, opts dynamo.Options) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(opts), nil
}

func (r *Registry) ListScenarios() []string {
	return sortedKeys(r.scenarios)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
