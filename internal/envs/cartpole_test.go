package envs_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/envs"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/physics"
)

func newCartPole(mutate func(*envs.CartPoleConfig)) *envs.CartPole {
	cfg := envs.DefaultCartPoleConfig()
	cfg.Logger = quiet
	cfg.Registry = gym.NewRegistry()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := envs.NewCartPole(cfg)
	Expect(err).NotTo(HaveOccurred())
	return env
}

var _ = Describe("CartPole", func() {
	thetaThreshold := 20 * 2 * math.Pi / 360

	It("declares its spaces", func() {
		env := newCartPole(nil)
		obs := env.ObservationSpace()
		Expect(obs.High).To(Equal([]float64{12, 50, 2 * thetaThreshold, 50}))
		Expect(env.ActionSpace().High).To(Equal([]float64{20}))
		Expect(env.RewardRange().Max).To(Equal(float64(math.MaxFloat32)))
		Expect(env.Dt()).To(Equal(0.02))
	})

	It("steps the physics and charges the stabilisation cost", func() {
		env := newCartPole(nil)
		_, _, err := env.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		Expect(err).NotTo(HaveOccurred())

		tr, err := env.Step(dynamo.Control{0})
		Expect(err).NotTo(HaveOccurred())

		want := physics.NewCartPole().Step(envs.CartPoleInitState, 0, 0.02, physics.KinematicsEuler)
		Expect(tr.Observation).To(Equal(want))

		x, theta := want[0], want[2]
		wantCost := x*x/100 + 20*(theta/thetaThreshold)*(theta/thetaThreshold)
		Expect(tr.Cost).To(BeNumerically("~", wantCost, 1e-12))
		Expect(tr.Terminated).To(BeFalse())
		Expect(tr.Info.StateOfInterest).To(Equal(theta))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("cons_pos", 4.0))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("violation_of_constraint", 0.0))
	})

	It("computes the shaped reference cost", func() {
		env := newCartPole(func(c *envs.CartPoleConfig) { c.CostType = envs.CostReference })
		env.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		tr, err := env.Step(dynamo.Control{0})
		Expect(err).NotTo(HaveOccurred())

		x, theta := tr.Observation[0], tr.Observation[2]
		r1 := (0.6 - math.Abs(x)) / 0.6
		r2 := (thetaThreshold/4 - math.Abs(theta)) / (thetaThreshold / 4)
		want := 20*math.Copysign(r2*r2, r2) + math.Copysign(r1*r1, r1)
		Expect(tr.Info.Terms["reference_x"]).To(BeNumerically("~", r1, 1e-12))
		if want < 0 {
			Expect(tr.Terminated).To(BeTrue())
			Expect(tr.Cost).To(Equal(envs.FailureCost))
		} else {
			Expect(tr.Cost).To(BeNumerically("~", want, 1e-9))
		}
	})

	It("ends the episode with the failure cost outside the thresholds", func() {
		env := newCartPole(nil)
		_, _, err := env.Reset(seed(0), &gym.ResetOptions{
			Low:  []float64{5.99, 5, 0, 0},
			High: []float64{5.99, 5, 0, 0},
		})
		Expect(err).NotTo(HaveOccurred())

		tr, err := env.Step(dynamo.Control{20})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Terminated).To(BeTrue())
		Expect(tr.Cost).To(Equal(envs.FailureCost))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("violation_of_x_threshold", 1.0))
	})

	It("samples the documented initial region", func() {
		env := newCartPole(nil)
		for i := uint64(0); i < 20; i++ {
			obs, _, err := env.Reset(seed(i), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(obs[0])).To(BeNumerically("<=", 5))
			for _, v := range obs[1:] {
				Expect(math.Abs(v)).To(BeNumerically("<=", 0.2))
			}
		}
	})

	DescribeTable("supports each kinematics integrator",
		func(k physics.Kinematics) {
			env := newCartPole(func(c *envs.CartPoleConfig) { c.Kinematics = k })
			env.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
			tr, err := env.Step(dynamo.Control{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Observation).To(Equal(physics.NewCartPole().Step(envs.CartPoleInitState, 1, 0.02, k)))
		},
		Entry("euler", physics.KinematicsEuler),
		Entry("friction", physics.KinematicsFriction),
		Entry("semi-implicit", physics.KinematicsSemiImplicit),
	)

	It("rejects an unknown kinematics integrator", func() {
		cfg := envs.DefaultCartPoleConfig()
		cfg.Logger = quiet
		cfg.Kinematics = "leapfrog"
		_, err := envs.NewCartPole(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("perturbs and restores the physical parameters", func() {
		env := newCartPole(nil)
		Expect(env.SetParam("length", 2)).To(Succeed())
		Expect(env.GetParams()).To(HaveKeyWithValue("length", 2.0))
		env.ResetParams()
		Expect(env.GetParams()).To(HaveKeyWithValue("length", 0.5))
	})
})
