package integrators_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/integrators"
)

func zeroField() dynamo.ForceField {
	return dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
		r, c := x.Dims()
		return mat.NewDense(r, c, nil)
	})
}

func constantField(f ...float64) dynamo.ForceField {
	return dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
		r, _ := x.Dims()
		out := mat.NewDense(r, len(f), nil)
		for i := 0; i < r; i++ {
			out.SetRow(i, f)
		}
		return out
	})
}

func springField(k float64) dynamo.ForceField {
	return dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
		var out mat.Dense
		out.Scale(-k, x)
		return &out
	})
}

// oscillatorEnergy is 0.5*v² + 0.5*k*x² for a single 1-D unit mass.
func oscillatorEnergy(tr *dynamo.Trajectory, i int, k float64) float64 {
	x := tr.Positions[i].At(0, 0)
	v := tr.Velocities[i].At(0, 0)
	return 0.5*v*v + 0.5*k*x*x
}

func maxEnergyDrift(tr *dynamo.Trajectory, k float64) float64 {
	e0 := oscillatorEnergy(tr, 0, k)
	drift := 0.0
	for i := 1; i < tr.Len(); i++ {
		drift = math.Max(drift, math.Abs(oscillatorEnergy(tr, i, k)-e0)/e0)
	}
	return drift
}

func oscillatorProblem() dynamo.Problem {
	return dynamo.Problem{
		T0:    0,
		T1:    2 * math.Pi,
		Dt:    0.01,
		Force: springField(1),
		Mass:  []float64{1},
		X0:    mat.NewDense(1, 1, []float64{1}),
		V0:    mat.NewDense(1, 1, []float64{0}),
	}
}

var _ = Describe("VelocityVerlet", func() {
	var (
		ctx   context.Context
		integ *integrators.VelocityVerlet
		x0    *mat.Dense
		v0    *mat.Dense
		mass  []float64
	)

	BeforeEach(func() {
		ctx = context.Background()
		integ = integrators.NewVelocityVerlet(dynamo.Options{})
		x0 = mat.NewDense(2, 2, []float64{0.1, -0.7, 3.3, 1e-9})
		v0 = mat.NewDense(2, 2, []float64{1.5, 0.25, -2, 0.1})
		mass = []float64{2, 0.5}
	})

	problem := func(force dynamo.ForceField, t1, dt float64) dynamo.Problem {
		return dynamo.Problem{T0: 0, T1: t1, Dt: dt, Force: force, Mass: mass, X0: x0, V0: v0}
	}

	Describe("initial conditions", func() {
		It("copies x0 and v0 into sample 0 bit for bit", func() {
			tr, err := integ.Integrate(ctx, problem(constantField(1, 1), 1, 0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(mat.Equal(tr.Positions[0], x0)).To(BeTrue())
			Expect(mat.Equal(tr.Velocities[0], v0)).To(BeTrue())
		})

		It("divides each particle's force row by its own mass", func() {
			tr, err := integ.Integrate(ctx, problem(constantField(4, -2), 1, 0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Accelerations[0].RawRowView(0)).To(Equal([]float64{2, -1}))
			Expect(tr.Accelerations[0].RawRowView(1)).To(Equal([]float64{8, -4}))
		})

		It("does not alias the caller's arrays", func() {
			tr, err := integ.Integrate(ctx, problem(zeroField(), 1, 0.1))
			Expect(err).NotTo(HaveOccurred())
			x0.Set(0, 0, 42)
			Expect(tr.Positions[0].At(0, 0)).To(Equal(0.1))
		})
	})

	Describe("time grid", func() {
		It("drops the fractional remainder", func() {
			times, positions, err := integrators.Integrate(0, 1, 0.3, zeroField(), mass, x0, v0)
			Expect(err).NotTo(HaveOccurred())
			Expect(times).To(HaveLen(3))
			Expect(positions).To(HaveLen(3))
			Expect(times[0]).To(Equal(0.0))
			Expect(times[1]).To(BeNumerically("~", 0.3, 1e-15))
			Expect(times[2]).To(BeNumerically("~", 0.6, 1e-15))
		})

		It("samples t0 + i*dt exactly", func() {
			p := problem(zeroField(), 5.75, 0.07)
			p.T0, p.T1 = 2.5, 8.25
			tr, err := integ.Integrate(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			span := 8.25 - 2.5
			Expect(tr.Len()).To(Equal(int(span / 0.07)))
			for i, t := range tr.Times {
				Expect(t).To(Equal(2.5 + float64(i)*0.07))
			}
		})

		DescribeTable("degenerates to the seed sample",
			func(dt float64) {
				tr, err := integ.Integrate(ctx, problem(zeroField(), 1, dt))
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Len()).To(Equal(1))
				Expect(tr.Times).To(Equal([]float64{0}))
				Expect(mat.Equal(tr.Positions[0], x0)).To(BeTrue())
			},
			Entry("dt equal to the interval", 1.0),
			Entry("dt longer than the interval", 3.0),
		)
	})

	Describe("closed form trajectories", func() {
		It("moves free particles in straight lines", func() {
			dt := 0.05
			tr, err := integ.Integrate(ctx, problem(zeroField(), 3, dt))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < tr.Len(); i++ {
				for p := 0; p < 2; p++ {
					for d := 0; d < 2; d++ {
						want := x0.At(p, d) + v0.At(p, d)*float64(i)*dt
						Expect(tr.Positions[i].At(p, d)).To(BeNumerically("~", want, 1e-12))
						Expect(tr.Velocities[i].At(p, d)).To(Equal(v0.At(p, d)))
					}
				}
			}
		})

		It("follows uniform acceleration exactly", func() {
			dt := 0.01
			force := []float64{3, -9.81}
			tr, err := integ.Integrate(ctx, problem(constantField(force...), 2, dt))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < tr.Len(); i++ {
				t := float64(i) * dt
				for p := 0; p < 2; p++ {
					for d := 0; d < 2; d++ {
						a := force[d] / mass[p]
						want := x0.At(p, d) + v0.At(p, d)*t + 0.5*a*t*t
						Expect(tr.Positions[i].At(p, d)).To(BeNumerically("~", want, 1e-9))
						Expect(tr.Velocities[i].At(p, d)).To(BeNumerically("~", v0.At(p, d)+a*t, 1e-9))
					}
				}
			}
		})
	})

	Describe("harmonic oscillator", func() {
		It("keeps energy within 1% over one period", func() {
			tr, err := integ.Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(628))
			Expect(maxEnergyDrift(tr, 1)).To(BeNumerically("<", 0.01))

			last := tr.Len() - 1
			Expect(tr.Positions[last].At(0, 0)).To(BeNumerically("~", math.Cos(tr.Times[last]), 1e-3))
		})

		It("outperforms explicit Euler", func() {
			euler, err := integrators.NewEuler(dynamo.Options{}).Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			verlet, err := integ.Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())

			Expect(maxEnergyDrift(euler, 1)).To(BeNumerically(">", 0.01))
			Expect(maxEnergyDrift(verlet, 1)).To(BeNumerically("<", maxEnergyDrift(euler, 1)/100))
		})
	})

	Describe("force evaluation", func() {
		It("evaluates the force once per sample, in time order, on the current snapshot", func() {
			var seen []*mat.Dense
			recording := dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
				seen = append(seen, mat.DenseCopyOf(x))
				var out mat.Dense
				out.Scale(-2, x)
				return &out
			})

			tr, err := integ.Integrate(ctx, problem(recording, 1, 0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.ForceEvals).To(Equal(tr.Len()))
			Expect(seen).To(HaveLen(tr.Len()))
			for i := range seen {
				Expect(mat.Equal(seen[i], tr.Positions[i])).To(BeTrue())
			}
		})

		It("is deterministic", func() {
			a, err := integ.Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			b, err := integ.Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			for i := range a.Positions {
				Expect(mat.Equal(a.Positions[i], b.Positions[i])).To(BeTrue())
				Expect(mat.Equal(a.Velocities[i], b.Velocities[i])).To(BeTrue())
			}
		})
	})

	Describe("input validation", func() {
		It("rejects a force of the wrong shape before producing samples", func() {
			tr, err := integ.Integrate(ctx, problem(constantField(1, 2, 3), 1, 0.1))
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
			Expect(tr).To(BeNil())
		})

		It("rejects a force that returns nil", func() {
			nilForce := dynamo.ForceFunc(func(mat.Matrix) mat.Matrix { return nil })
			_, err := integ.Integrate(ctx, problem(nilForce, 1, 0.1))
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
		})

		It("returns no partial trajectory when the force changes shape mid-run", func() {
			calls := 0
			flaky := dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
				calls++
				if calls > 5 {
					return mat.NewDense(1, 1, nil)
				}
				r, c := x.Dims()
				return mat.NewDense(r, c, nil)
			})

			tr, err := integ.Integrate(ctx, problem(flaky, 1, 0.1))
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))

			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
			Expect(err.(*dynamo.SimulationError).Step).To(Equal(5))
		})

		It("validates masses before calling the force", func() {
			called := false
			spy := dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
				called = true
				r, c := x.Dims()
				return mat.NewDense(r, c, nil)
			})

			p := problem(spy, 1, 0.1)
			p.Mass = []float64{1}
			_, err := integ.Integrate(ctx, p)
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))

			p.Mass = []float64{1, 0}
			_, err = integ.Integrate(ctx, p)
			Expect(err).To(MatchError(dynamo.ErrInvalidMass))

			p.Mass = []float64{1, -3}
			_, err = integ.Integrate(ctx, p)
			Expect(err).To(MatchError(dynamo.ErrInvalidMass))

			Expect(called).To(BeFalse())
		})

		DescribeTable("rejects bad time ranges",
			func(t0, t1, dt float64) {
				p := problem(zeroField(), t1, dt)
				p.T0 = t0
				_, err := integ.Integrate(ctx, p)
				Expect(err).To(MatchError(dynamo.ErrInvalidTimeRange))
			},
			Entry("zero dt", 0.0, 1.0, 0.0),
			Entry("negative dt", 0.0, 1.0, -0.1),
			Entry("empty interval", 1.0, 1.0, 0.1),
			Entry("reversed interval", 1.0, 0.0, 0.1),
		)

		It("rejects mismatched x0 and v0", func() {
			p := problem(zeroField(), 1, 0.1)
			p.V0 = mat.NewDense(2, 3, nil)
			_, err := integ.Integrate(ctx, p)
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))
		})
	})

	Describe("options", func() {
		It("stops on non-finite state when validation is on", func() {
			blowUp := dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
				r, c := x.Dims()
				out := mat.NewDense(r, c, nil)
				if x.At(0, 0) > 0.5 {
					out.Set(0, 0, math.Inf(1))
				}
				return out
			})

			_, err := integ.Integrate(ctx, problem(blowUp, 1, 0.1))
			Expect(err).NotTo(HaveOccurred())

			checked := integrators.NewVelocityVerlet(dynamo.Options{ValidateState: true})
			tr, err := checked.Integrate(ctx, problem(blowUp, 1, 0.1))
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrUnstable))
		})

		It("notifies the observer for every sample", func() {
			var steps []int
			obs := dynamo.ObserverFunc(func(step, total int, t float64) {
				Expect(total).To(Equal(10))
				steps = append(steps, step)
			})

			observed := integrators.NewVelocityVerlet(dynamo.Options{Observer: obs})
			_, err := observed.Integrate(ctx, problem(zeroField(), 1, 0.1))
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
		})

		It("aborts between steps when the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			obs := dynamo.ObserverFunc(func(step, total int, t float64) {
				if step == 3 {
					cancel()
				}
			})

			tr, err := integrators.NewVelocityVerlet(dynamo.Options{Observer: obs}).Integrate(cctx, problem(zeroField(), 1, 0.1))
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(err).To(MatchError(context.Canceled))
			Expect(err.(*dynamo.SimulationError).Step).To(Equal(4))
		})
	})
})

var _ = Describe("comparison schemes", func() {
	ctx := context.Background()

	DescribeTable("keeps oscillator energy bounded",
		func(integ dynamo.Integrator, bound float64) {
			tr, err := integ.Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.ForceEvals).To(Equal(tr.Len()))
			Expect(maxEnergyDrift(tr, 1)).To(BeNumerically("<", bound))
		},
		Entry("leapfrog", integrators.NewLeapfrog(dynamo.Options{}), 0.01),
		Entry("symplectic euler", integrators.NewSymplecticEuler(dynamo.Options{}), 0.02),
	)

	Describe("RK4", func() {
		It("evaluates the force four times per step", func() {
			tr, err := integrators.NewRK4(dynamo.Options{}).Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.ForceEvals).To(Equal(1 + 4*(tr.Len()-1)))
		})

		It("tracks the oscillator to fourth order", func() {
			tr, err := integrators.NewRK4(dynamo.Options{}).Integrate(ctx, oscillatorProblem())
			Expect(err).NotTo(HaveOccurred())
			for i, t := range tr.Times {
				Expect(tr.Positions[i].At(0, 0)).To(BeNumerically("~", math.Cos(t), 1e-8))
				Expect(tr.Velocities[i].At(0, 0)).To(BeNumerically("~", -math.Sin(t), 1e-8))
			}
		})

		It("loses energy on every step", func() {
			p := oscillatorProblem()
			p.Dt = 0.1
			tr, err := integrators.NewRK4(dynamo.Options{}).Integrate(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < tr.Len(); i++ {
				Expect(oscillatorEnergy(tr, i, 1)).To(BeNumerically("<", oscillatorEnergy(tr, i-1, 1)))
			}
		})

		It("rejects a force that changes shape in an inner stage", func() {
			calls := 0
			force := dynamo.ForceFunc(func(x mat.Matrix) mat.Matrix {
				calls++
				if calls == 3 {
					return mat.NewDense(2, 1, nil)
				}
				var out mat.Dense
				out.Scale(-1, x)
				return &out
			})
			p := oscillatorProblem()
			p.Force = force
			tr, err := integrators.NewRK4(dynamo.Options{}).Integrate(ctx, p)
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrShapeMismatch))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
		})
	})

	It("matches velocity Verlet with leapfrog up to rounding", func() {
		lf, err := integrators.NewLeapfrog(dynamo.Options{}).Integrate(ctx, oscillatorProblem())
		Expect(err).NotTo(HaveOccurred())
		vv, err := integrators.NewVelocityVerlet(dynamo.Options{}).Integrate(ctx, oscillatorProblem())
		Expect(err).NotTo(HaveOccurred())

		for i := range vv.Positions {
			Expect(lf.Positions[i].At(0, 0)).To(BeNumerically("~", vv.Positions[i].At(0, 0), 1e-10))
		}
	})

	It("reports scheme names", func() {
		opts := dynamo.Options{}
		Expect(integrators.NewVelocityVerlet(opts).Name()).To(Equal("verlet"))
		Expect(integrators.NewLeapfrog(opts).Name()).To(Equal("leapfrog"))
		Expect(integrators.NewEuler(opts).Name()).To(Equal("euler"))
		Expect(integrators.NewSymplecticEuler(opts).Name()).To(Equal("symplectic_euler"))
		Expect(integrators.NewRK4(opts).Name()).To(Equal("rk4"))
	})
})
