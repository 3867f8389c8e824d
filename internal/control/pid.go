package control

import "github.com/san-kum/stablegym/internal/dynamo"

// PID tracks one observation element. The setpoint is Target, or the
// observation element at ReferenceIndex when that is non-negative. The output
// is written to ActionIndex of an ActionDim-sized action.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	StateIndex     int
	ReferenceIndex int
	ActionIndex    int
	ActionDim      int

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:             kp,
		Ki:             ki,
		Kd:             kd,
		Target:         target,
		ReferenceIndex: -1,
		ActionDim:      1,
		first:          true,
	}
}

func (p *PID) action(v float64) dynamo.Control {
	u := make(dynamo.Control, p.ActionDim)
	if p.ActionIndex < len(u) {
		u[p.ActionIndex] = v
	}
	return u
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if p.StateIndex >= len(x) || p.ReferenceIndex >= len(x) {
		return p.action(0)
	}

	target := p.Target
	if p.ReferenceIndex >= 0 {
		target = x[p.ReferenceIndex]
	}
	err := target - x[p.StateIndex]

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.action(p.Kp * err)
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return p.action(u)
	}
	return p.action(p.Kp * err)
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	default:
		return dynamo.UnknownParam(name)
	}
	return nil
}
