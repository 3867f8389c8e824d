package envs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/envs"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/physics"
)

func newVelocityTracking(mutate func(*envs.VelocityTrackingConfig)) *envs.VelocityTracking {
	cfg := envs.DefaultVelocityTrackingConfig()
	cfg.Logger = quiet
	cfg.Registry = gym.NewRegistry()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := envs.NewVelocityTracking(cfg)
	Expect(err).NotTo(HaveOccurred())
	return env
}

var _ = Describe("VelocityTracking", func() {
	It("extends the body observation with reference and velocity", func() {
		env := newVelocityTracking(nil)
		Expect(env.ObservationSpace().Shape()).To(Equal(5 + 2))

		obs, info, err := env.Reset(seed(1), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(7))
		Expect(obs[5]).To(Equal(1.0))
		Expect(obs[6]).To(Equal(0.0))
		Expect(info.Reference).To(Equal(1.0))
		Expect(info.StateOfInterest).To(Equal(0.0))
		Expect(info.ReferenceError).To(Equal(-1.0))
		Expect(info.Terms).To(HaveKeyWithValue("cost_velocity", 1.0))
	})

	It("charges the squared velocity error while hovering", func() {
		env := newVelocityTracking(nil)
		env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})

		hover := physics.NewQuadrotor2D().HoverThrust()
		tr, err := env.Step(dynamo.Control{hover, hover})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Terminated).To(BeFalse())
		Expect(tr.Info.StateOfInterest).To(BeNumerically("~", 0, 1e-12))
		Expect(tr.Cost).To(BeNumerically("~", 1.0, 1e-9))
		Expect(tr.Info.Terms["cost_ctrl"]).To(BeNumerically("~", 1e-3*2*hover*hover, 1e-12))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("penalty_health", 0.0))
	})

	It("adds the control cost when asked", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) { c.IncludeCtrlCost = true })
		env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})
		hover := physics.NewQuadrotor2D().HoverThrust()
		tr, err := env.Step(dynamo.Control{hover, hover})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Cost).To(BeNumerically("~", 1.0+1e-3*2*hover*hover, 1e-9))
	})

	It("reports the control cost it charges after a weight change", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) { c.IncludeCtrlCost = true })
		Expect(env.SetParam("ctrl_cost_weight", 1)).To(Succeed())
		env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})

		tr, err := env.Step(dynamo.Control{5, 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Info.Terms["cost_ctrl"]).To(BeNumerically("~", 50, 1e-9))
		Expect(tr.Info.Terms["cost_ctrl"] + tr.Info.Terms["cost_velocity"] + tr.Info.Terms["penalty_health"]).
			To(BeNumerically("~", tr.Cost, 1e-9))
	})

	It("penalises and terminates an unhealthy body", func() {
		env := newVelocityTracking(nil)
		env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})

		var tr gym.Transition
		var err error
		for i := 0; i < 500 && !tr.Terminated; i++ {
			tr, err = env.Step(dynamo.Control{0, 0})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(tr.Terminated).To(BeTrue())
		Expect(tr.Info.Terms).To(HaveKeyWithValue("penalty_health", 10.0))
		Expect(tr.Cost).To(BeNumerically(">=", 10))
	})

	It("keeps going when unhealthy if termination is disabled", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) { c.TerminateWhenUnhealthy = false })
		env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})
		for i := 0; i < 100; i++ {
			tr, err := env.Step(dynamo.Control{0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Terminated).To(BeFalse())
		}
	})

	It("resamples the reference per episode", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) { c.RandomiseReference = true })
		seen := map[float64]bool{}
		for i := uint64(0); i < 10; i++ {
			_, info, err := env.Reset(seed(i), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Reference).To(BeNumerically(">=", 0.5))
			Expect(info.Reference).To(BeNumerically("<", 1.5))
			seen[info.Reference] = true
		}
		Expect(len(seen)).To(BeNumerically(">", 1))
	})

	It("charges the reset cost against the previous reference", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) { c.RandomiseReference = true })
		_, _, err := env.Reset(seed(3), nil)
		Expect(err).NotTo(HaveOccurred())
		prev := env.ReferenceVelocity()

		_, info, err := env.Reset(seed(4), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Reference).To(Equal(env.ReferenceVelocity()))
		Expect(info.Terms["cost_velocity"]).To(BeNumerically("~", prev*prev, 1e-12))
	})

	It("requires an observable reference when it is randomised", func() {
		cfg := envs.DefaultVelocityTrackingConfig()
		cfg.Logger = quiet
		cfg.RandomiseReference = true
		cfg.ExcludeReference = true
		cfg.ExcludeReferenceError = true
		_, err := envs.NewVelocityTracking(cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("keeps the forward position when asked", func() {
		env := newVelocityTracking(func(c *envs.VelocityTrackingConfig) {
			c.ExcludeCurrentPositions = false
			c.ExcludeReferenceError = false
		})
		Expect(env.ObservationSpace().Shape()).To(Equal(6 + 3))
	})

	It("routes parameters to the body", func() {
		env := newVelocityTracking(nil)
		Expect(env.SetParam("mass", 2)).To(Succeed())
		Expect(env.GetParams()).To(HaveKeyWithValue("mass", 2.0))
		Expect(env.SetParam("reference_forward_velocity", 0.7)).To(Succeed())
		Expect(env.ReferenceVelocity()).To(Equal(0.7))
	})
})
