package envs_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/envs"
	"github.com/san-kum/stablegym/internal/gym"
	"github.com/san-kum/stablegym/internal/integrators"
)

func newOscillator(mutate func(*envs.OscillatorConfig)) *envs.Oscillator {
	cfg := envs.DefaultOscillatorConfig()
	cfg.Logger = quiet
	cfg.Registry = gym.NewRegistry()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := envs.NewOscillator(cfg)
	Expect(err).NotTo(HaveOccurred())
	return env
}

var _ = Describe("Oscillator", func() {
	var env *envs.Oscillator

	BeforeEach(func() {
		env = newOscillator(nil)
	})

	It("declares its spaces", func() {
		Expect(env.ObservationSpace().Shape()).To(Equal(7))
		Expect(env.ActionSpace().Shape()).To(Equal(3))
		Expect(env.RewardRange().Min).To(Equal(0.0))
		Expect(env.RewardRange().Max).To(Equal(100.0))
		Expect(env.Dt()).To(Equal(1.0))
		Expect(env.Tau()).To(Equal(env.Dt()))
	})

	It("refuses to step before reset", func() {
		_, err := env.Step(dynamo.Control{0, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrNotReset))
	})

	It("reproduces the closed-form Euler update from the fixed initial state", func() {
		_, _, err := env.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		Expect(err).NotTo(HaveOccurred())

		tr, err := env.Step(dynamo.Control{0, 0, 0})
		Expect(err).NotTo(HaveOccurred())

		m1, m2, m3, p1, p2, p3 := 0.8, 1.5, 0.5, 3.3, 3.0, 3.0
		want := []float64{
			m1 + (-0.16*m1+1.6/(1+p3*p3))*1.0,
			m2 + (-0.16*m2+1.6/(1+p1*p1))*1.0,
			m3 + (-0.16*m3+1.6/(1+p2*p2))*1.0,
			p1 + (-0.06*p1+0.16*m1)*1.0,
			p2 + (-0.06*p2+0.16*m2)*1.0,
			p3 + (-0.06*p3+0.16*m3)*1.0,
		}
		state := env.State()
		for i := range want {
			Expect(state[i]).To(BeNumerically("~", want[i], 1e-9))
		}
		Expect(state[0]).To(BeNumerically("~", 0.832, 1e-9))
		Expect(state[3]).To(BeNumerically("~", 3.23, 1e-9))

		r := 8 + 7*math.Sin(2*math.Pi/200*1.0)
		Expect(tr.Info.Reference).To(BeNumerically("~", r, 1e-12))
		Expect(tr.Cost).To(BeNumerically("~", (want[3]-r)*(want[3]-r), 1e-9))
		Expect(tr.Observation[6]).To(Equal(tr.Info.Reference))
		Expect(tr.Info.StateOfInterest).To(Equal(state[3]))
		Expect(tr.Info.ReferenceError).To(BeNumerically("~", state[3]-r, 1e-12))
		Expect(env.Time()).To(Equal(1.0))
	})

	It("is deterministic for a given seed", func() {
		other := newOscillator(nil)
		a, _, err := env.Reset(seed(123), nil)
		Expect(err).NotTo(HaveOccurred())
		b, _, err := other.Reset(seed(123), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))

		c, _, _ := other.Reset(seed(124), nil)
		Expect(c).NotTo(Equal(a))
	})

	It("samples the initial state inside the default bounds", func() {
		obs, info, err := env.Reset(seed(5), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(7))
		for _, v := range obs[:6] {
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<=", 5))
		}
		Expect(info.Reference).To(Equal(8.0))
		Expect(info.StateOfInterest).To(Equal(obs[3]))
	})

	It("honours custom reset bounds", func() {
		low := []float64{1, 1, 1, 1, 1, 1}
		high := []float64{1.5, 1.5, 1.5, 1.5, 1.5, 1.5}
		obs, _, err := env.Reset(seed(5), &gym.ResetOptions{Low: low, High: high})
		Expect(err).NotTo(HaveOccurred())
		for _, v := range obs[:6] {
			Expect(v).To(BeNumerically(">=", 1))
			Expect(v).To(BeNumerically("<=", 1.5))
		}
	})

	It("rejects reset bounds outside the observation space without touching the state", func() {
		_, _, err := env.Reset(seed(1), &gym.ResetOptions{FixedInit: true})
		Expect(err).NotTo(HaveOccurred())
		before := env.State()

		_, _, err = env.Reset(seed(1), &gym.ResetOptions{
			Low:  []float64{-1, 0, 0, 0, 0, 0},
			High: []float64{5, 5, 5, 5, 5, 5},
		})
		Expect(err).To(MatchError(dynamo.ErrResetBounds))
		Expect(env.State()).To(Equal(before))
	})

	It("keeps concentrations non-negative under heavy noise", func() {
		noisy := newOscillator(func(c *envs.OscillatorConfig) {
			c.Noise = [6]float64{3, 3, 3, 3, 3, 3}
		})
		_, _, err := noisy.Reset(seed(99), nil)
		Expect(err).NotTo(HaveOccurred())

		space := noisy.ActionSpace()
		for i := 0; i < 10000; i++ {
			u := dynamo.Control{-5, -5, -5}
			if i%2 == 0 {
				u = dynamo.Control{space.High[0], 0, space.Low[2]}
			}
			_, err := noisy.Step(u)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range noisy.State() {
				Expect(v).To(BeNumerically(">=", 0))
			}
		}
	})

	It("terminates exactly when the cost leaves [0, 100]", func() {
		far := newOscillator(func(c *envs.OscillatorConfig) {
			c.Reference.Target = 30
			c.Reference.Amplitude = 0
		})
		_, _, err := far.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		Expect(err).NotTo(HaveOccurred())

		tr, err := far.Step(dynamo.Control{0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Cost).To(BeNumerically(">", 100))
		Expect(tr.Terminated).To(BeTrue())

		tr, err = env.Step(dynamo.Control{0, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrNotReset))

		env.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		tr, err = env.Step(dynamo.Control{0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Cost).To(BeNumerically("<=", 100))
		Expect(tr.Terminated).To(BeFalse())
	})

	It("clips out-of-range actions by default", func() {
		a := newOscillator(nil)
		b := newOscillator(nil)
		a.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		b.Reset(seed(0), &gym.ResetOptions{FixedInit: true})

		ta, err := a.Step(dynamo.Control{50, -50, 0})
		Expect(err).NotTo(HaveOccurred())
		tb, err := b.Step(dynamo.Control{5, -5, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(ta.Observation).To(Equal(tb.Observation))
	})

	It("rejects out-of-range actions when clipping is off", func() {
		strict := newOscillator(func(c *envs.OscillatorConfig) { c.ClipAction = false })
		strict.Reset(seed(0), nil)
		_, err := strict.Step(dynamo.Control{6, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrActionOutOfBounds))
	})

	It("validates the reference at construction", func() {
		cfg := envs.DefaultOscillatorConfig()
		cfg.Logger = quiet
		cfg.Reference.Frequency = -1
		_, err := envs.NewOscillator(cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))

		cfg = envs.DefaultOscillatorConfig()
		cfg.Logger = quiet
		cfg.ExcludeReference = true
		cfg.ExcludeReferenceError = true
		_, err = envs.NewOscillator(cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))

		cfg.Reference.Amplitude = 0
		_, err = envs.NewOscillator(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("shapes the observation by the exclude flags", func() {
		both := newOscillator(func(c *envs.OscillatorConfig) { c.ExcludeReferenceError = false })
		Expect(both.ObservationSpace().Shape()).To(Equal(8))
		obs, _, err := both.Reset(seed(3), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(8))
		Expect(obs[7]).To(BeNumerically("~", obs[3]-obs[6], 1e-12))
		Expect(both.ObservationSpace().Bound(7).Min).To(Equal(-100.0))
	})

	It("exposes its parameters for perturbation", func() {
		Expect(env.SetParam("c1", 0.1)).To(Succeed())
		Expect(env.GetParams()).To(HaveKeyWithValue("c1", 0.1))
		Expect(env.SetParam("delta4", 0.5)).To(Succeed())
		Expect(env.GetParams()).To(HaveKeyWithValue("delta4", 0.5))
		Expect(env.SetParam("delta4", -1)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(env.SetParam("reference_amplitude", 2)).To(Succeed())
		Expect(env.SetParam("bogus", 1)).To(MatchError(dynamo.ErrUnknownParam))
		env.ResetParams()
		Expect(env.GetParams()).To(HaveKeyWithValue("c1", 0.06))
	})

	It("gives a higher-order integrator the same fixed point behaviour", func() {
		rk := newOscillator(func(c *envs.OscillatorConfig) { c.Integrator = integrators.NewRK4() })
		_, _, err := rk.Reset(seed(0), &gym.ResetOptions{FixedInit: true})
		Expect(err).NotTo(HaveOccurred())
		tr, err := rk.Step(dynamo.Control{0, 0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Observation[3]).To(BeNumerically("~", 3.23, 0.05))
	})

	It("does not render", func() {
		Expect(env.Render()).To(MatchError(dynamo.ErrNotImplemented))
	})

	It("numbers instances from its registry", func() {
		reg := gym.NewRegistry()
		cfg := envs.DefaultOscillatorConfig()
		cfg.Logger = quiet
		cfg.Registry = reg
		a, _ := envs.NewOscillator(cfg)
		b, _ := envs.NewOscillator(cfg)
		Expect(a.ID()).To(Equal(1))
		Expect(b.ID()).To(Equal(2))
	})
})
