package envs_test

import (
	"bytes"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stablegym/internal/dynamo"
	"github.com/san-kum/stablegym/internal/envs"
	"github.com/san-kum/stablegym/internal/gym"
)

func newEx3EKF(mutate func(*envs.Ex3EKFConfig)) *envs.Ex3EKF {
	cfg := envs.DefaultEx3EKFConfig()
	cfg.Logger = quiet
	cfg.Registry = gym.NewRegistry()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := envs.NewEx3EKF(cfg)
	Expect(err).NotTo(HaveOccurred())
	return env
}

// noiseless removes process and measurement noise so one step can be
// computed by hand.
func noiseless(c *envs.Ex3EKFConfig) {
	c.Q1 = 0
	c.Cov2 = 0
}

var _ = Describe("Ex3EKF", func() {
	It("declares float32 spaces", func() {
		env := newEx3EKF(nil)
		Expect(env.ObservationSpace().Shape()).To(Equal(4))
		Expect(env.ObservationSpace().High[0]).To(Equal(10000.0))
		Expect(env.ActionSpace().Shape()).To(Equal(2))
		Expect(env.ActionSpace().DType.String()).To(Equal("float32"))
		Expect(env.Dt()).To(Equal(0.1))
	})

	It("resets the estimate near the true state", func() {
		env := newEx3EKF(nil)
		obs, info, err := env.Reset(seed(7), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(4))
		Expect(math.Abs(obs[2])).To(BeNumerically("<=", math.Pi/2))
		Expect(math.Abs(obs[3])).To(BeNumerically("<=", math.Pi/2))
		Expect(math.Abs(obs[0] - obs[2])).To(BeNumerically("<=", math.Pi/4))
		Expect(math.Abs(obs[1] - obs[3])).To(BeNumerically("<=", math.Pi/4))
		Expect(info.StateOfInterest).To(BeNumerically("~", obs[0]-obs[2], 1e-15))
	})

	It("starts every episode with a received packet", func() {
		env := newEx3EKF(func(c *envs.Ex3EKFConfig) { c.MissingRate = 1 })
		_, info, err := env.Reset(seed(5), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Terms).To(HaveKeyWithValue("packet_received", 1.0))

		tr, err := env.Step(dynamo.Control{0, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Info.Terms).To(HaveKeyWithValue("packet_received", 0.0))

		_, info, err = env.Reset(seed(6), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Terms).To(HaveKeyWithValue("packet_received", 1.0))
	})

	It("applies the filter-corrected update when every packet arrives", func() {
		env := newEx3EKF(noiseless)
		x0, _, err := env.Reset(seed(11), nil)
		Expect(err).NotTo(HaveOccurred())

		u := dynamo.Control{2, -3}
		tr, err := env.Step(u)
		Expect(err).NotTo(HaveOccurred())

		dt, g := 0.1, 9.81
		h1, h2, x1, x2 := x0[0], x0[1], x0[2], x0[3]
		x1 = x1 + dt*x2
		x2 = x2 - g*math.Sin(x1)*dt
		innovation := math.Sin(x1) - math.Sin(h1+dt*h2)
		wantH1 := h1 + dt*h2 + dt*u[0]*innovation
		wantH2 := h2 - g*math.Sin(wantH1)*dt + dt*u[1]*innovation

		Expect(tr.Observation[0]).To(BeNumerically("~", wantH1, 1e-12))
		Expect(tr.Observation[1]).To(BeNumerically("~", wantH2, 1e-12))
		Expect(tr.Observation[2]).To(BeNumerically("~", x1, 1e-12))
		Expect(tr.Observation[3]).To(BeNumerically("~", x2, 1e-12))

		openLoop := h1 + dt*h2
		Expect(math.Abs(tr.Observation[0] - openLoop)).To(BeNumerically(">", 0))

		wantCost := (wantH1-x1)*(wantH1-x1) + (wantH2-x2)*(wantH2-x2)
		Expect(tr.Cost).To(BeNumerically("~", wantCost, 1e-12))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("packet_received", 1.0))
		Expect(tr.Info.ReferenceError).To(BeNumerically("~", innovation, 1e-12))
		Expect(env.Output()).To(BeNumerically("~", math.Sin(x1), 1e-12))
	})

	It("falls back to the open-loop update when every packet is lost", func() {
		env := newEx3EKF(func(c *envs.Ex3EKFConfig) {
			noiseless(c)
			c.MissingRate = 1
		})
		x0, _, err := env.Reset(seed(11), nil)
		Expect(err).NotTo(HaveOccurred())

		tr, err := env.Step(dynamo.Control{2, -3})
		Expect(err).NotTo(HaveOccurred())

		dt, g := 0.1, 9.81
		wantH1 := x0[0] + dt*x0[1]
		wantH2 := x0[1] - g*math.Sin(wantH1)*dt
		Expect(tr.Observation[0]).To(BeNumerically("~", wantH1, 1e-12))
		Expect(tr.Observation[1]).To(BeNumerically("~", wantH2, 1e-12))
		Expect(tr.Info.Terms).To(HaveKeyWithValue("packet_received", 0.0))
	})

	It("adds the known input to both plant and estimator", func() {
		env := newEx3EKF(func(c *envs.Ex3EKFConfig) {
			noiseless(c)
			c.MissingRate = 1
			c.InputAmplitude = 2
		})
		x0, _, _ := env.Reset(seed(2), nil)
		tr, err := env.Step(dynamo.Control{0, 0})
		Expect(err).NotTo(HaveOccurred())

		dt, g := 0.1, 9.81
		input := 2 * math.Cos(0) * dt
		x1 := x0[2] + dt*x0[3]
		Expect(tr.Observation[3]).To(BeNumerically("~", x0[3]-g*math.Sin(x1)*dt+input, 1e-12))
	})

	It("is reproducible for a seed, noise included", func() {
		a := newEx3EKF(nil)
		b := newEx3EKF(nil)
		a.Reset(seed(42), nil)
		b.Reset(seed(42), nil)
		for i := 0; i < 50; i++ {
			ta, err := a.Step(dynamo.Control{1, 1})
			Expect(err).NotTo(HaveOccurred())
			tb, err := b.Step(dynamo.Control{1, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(ta.Observation).To(Equal(tb.Observation))
			Expect(ta.Cost).To(Equal(tb.Cost))
		}
	})

	It("terminates when the estimation error leaves [0, 100]", func() {
		env := newEx3EKF(noiseless)
		env.Reset(seed(3), nil)
		tr, err := env.Step(dynamo.Control{10, 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Terminated).To(Equal(tr.Cost > 100))
	})

	It("warns that reset options are ignored", func() {
		var buf bytes.Buffer
		env := newEx3EKF(func(c *envs.Ex3EKFConfig) {
			c.Logger = slog.New(slog.NewTextHandler(&buf, nil))
		})
		_, _, err := env.Reset(seed(1), &gym.ResetOptions{Low: []float64{-1}, High: []float64{1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("reset options are not used"))
	})

	It("validates its parameters", func() {
		cfg := envs.DefaultEx3EKFConfig()
		cfg.Logger = quiet
		cfg.MissingRate = 1.5
		_, err := envs.NewEx3EKF(cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))

		env := newEx3EKF(nil)
		Expect(env.SetParam("missing_rate", 0.3)).To(Succeed())
		Expect(env.GetParams()).To(HaveKeyWithValue("missing_rate", 0.3))
		Expect(env.SetParam("cov2", -1)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(env.GetParams()).To(HaveKeyWithValue("cov2", 1e-2))
		Expect(env.SetParam("length", 2)).To(Succeed())
		Expect(env.SetParam("nope", 2)).To(MatchError(dynamo.ErrUnknownParam))
	})

	It("does not render", func() {
		Expect(newEx3EKF(nil).Render()).To(MatchError(dynamo.ErrNotImplemented))
	})
})
