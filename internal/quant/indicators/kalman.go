package indicators

import "math"

// Kalman1D runs a constant-velocity 1D Kalman filter over a price
// series, emitting an estimated-price channel and a velocity channel.
// Measurement variance is estimated from the rolling stdev over
// lookback bars; the process noise is a small fixed constant (1e-4) so
// the filter tracks slowly-varying trends without chasing noise. The
// first lookback-1 bars of both channels are NaN holes.
func Kalman1D(closes []float64, lookback int) (estimate, velocity []float64) {
	estimate = make([]float64, len(closes))
	velocity = make([]float64, len(closes))
	if len(closes) == 0 {
		return
	}

	variance := StdDev(closes, lookback)

	// State: [price, velocity]. Covariance P is 2x2, kept as scalars.
	x, v := closes[0], 0.0
	p00, p01, p10, p11 := 1.0, 0.0, 0.0, 1.0
	const dt = 1.0
	const processNoise = 1e-4

	for i := range closes {
		measVar := 1.0
		if i >= lookback-1 && !nan(variance[i]) && variance[i] > 0 {
			measVar = variance[i] * variance[i]
		}

		// Predict.
		xPred := x + v*dt
		vPred := v
		pp00 := p00 + dt*(p10+p01) + dt*dt*p11 + processNoise
		pp01 := p01 + dt*p11
		pp10 := p10 + dt*p11
		pp11 := p11 + processNoise

		// Update with measurement z = closes[i].
		z := closes[i]
		yResidual := z - xPred
		s := pp00 + measVar
		if s == 0 || math.IsNaN(s) {
			s = measVar + 1e-9
		}
		k0 := pp00 / s
		k1 := pp10 / s

		x = xPred + k0*yResidual
		v = vPred + k1*yResidual

		p00 = (1 - k0) * pp00
		p01 = (1 - k0) * pp01
		p10 = pp10 - k1*pp00
		p11 = pp11 - k1*pp01

		if i < lookback-1 {
			estimate[i], velocity[i] = math.NaN(), math.NaN()
			continue
		}
		estimate[i] = x
		velocity[i] = v
	}
	return
}
