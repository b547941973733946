package ingest

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// KalmanCalibrator learns a linear correction value = alpha*raw + beta for a
// sensor stream, updated online from paired (raw, reference) measurements.
// The state is [alpha, beta] with a 2x2 covariance.
type KalmanCalibrator struct {
	alpha, beta float64
	p           [2][2]float64
	q           float64
	r           float64
	updates     int
}

// NewKalmanCalibrator starts from the identity correction (alpha=1, beta=0)
// with moderate initial uncertainty.
func NewKalmanCalibrator() *KalmanCalibrator {
	k := &KalmanCalibrator{}
	k.Reset()
	return k
}

// Reset restores the identity correction and initial covariance.
func (k *KalmanCalibrator) Reset() {
	k.alpha, k.beta = 1, 0
	k.p = [2][2]float64{{0.1, 0}, {0, 0.1}}
	k.q = 0.001
	k.r = 0.05
	k.updates = 0
}

// Seed installs externally fitted coefficients, counting them as n paired
// observations.
func (k *KalmanCalibrator) Seed(alpha, beta float64, n int) {
	k.Reset()
	k.alpha, k.beta = alpha, beta
	k.updates = n
}

// Update incorporates one paired observation: the raw sensor reading and the
// trusted reference value taken at the same time.
func (k *KalmanCalibrator) Update(raw, reference float64) {
	// Predict step: the state is constant, covariance grows by Q.
	k.p[0][0] += k.q
	k.p[1][1] += k.q

	// Measurement model: reference = alpha*raw + beta, H = [raw, 1].
	h0, h1 := raw, 1.0
	predicted := k.alpha*raw + k.beta
	innovation := reference - predicted

	// S = H P H' + R
	ph0 := k.p[0][0]*h0 + k.p[0][1]*h1
	ph1 := k.p[1][0]*h0 + k.p[1][1]*h1
	s := h0*ph0 + h1*ph1 + k.r
	if s == 0 {
		return
	}

	// K = P H' / S
	k0 := ph0 / s
	k1 := ph1 / s

	k.alpha += k0 * innovation
	k.beta += k1 * innovation

	// P = (I - K H) P
	p00 := (1-k0*h0)*k.p[0][0] - k0*h1*k.p[1][0]
	p01 := (1-k0*h0)*k.p[0][1] - k0*h1*k.p[1][1]
	p10 := -k1*h0*k.p[0][0] + (1-k1*h1)*k.p[1][0]
	p11 := -k1*h0*k.p[0][1] + (1-k1*h1)*k.p[1][1]
	k.p = [2][2]float64{{p00, p01}, {p10, p11}}

	k.updates++
}

// Calibrate applies the learned correction to a raw reading.
func (k *KalmanCalibrator) Calibrate(raw float64) float64 {
	return k.alpha*raw + k.beta
}

// Coefficients returns the current correction parameters.
func (k *KalmanCalibrator) Coefficients() (alpha, beta float64) {
	return k.alpha, k.beta
}

// Updates returns how many paired observations have been incorporated.
func (k *KalmanCalibrator) Updates() int {
	return k.updates
}

// Uncertainty returns the standard error of a calibrated reading at the
// given raw value, derived from the state covariance.
func (k *KalmanCalibrator) Uncertainty(raw float64) float64 {
	h0, h1 := raw, 1.0
	v := h0*(k.p[0][0]*h0+k.p[0][1]*h1) + h1*(k.p[1][0]*h0+k.p[1][1]*h1) + k.r
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// ErrTooFewPoints is returned by FitCalibration when fewer than three
// paired points are supplied.
var ErrTooFewPoints = errors.New("ingest: calibration needs at least 3 paired points")

// FitCalibration fits a static least-squares correction from a batch of
// paired (raw, reference) measurements, for devices that report calibration
// points up front rather than streaming them.
func FitCalibration(raw, reference []float64) (alpha, beta float64, err error) {
	if len(raw) != len(reference) {
		return 0, 0, errors.New("ingest: mismatched calibration inputs")
	}
	if len(raw) < 3 {
		return 0, 0, ErrTooFewPoints
	}

	// stat.LinearRegression returns (intercept, slope); our correction is
	// reference = alpha*raw + beta, so alpha is the slope.
	beta, alpha = stat.LinearRegression(raw, reference, nil, false)
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return 0, 0, errors.New("ingest: degenerate calibration inputs")
	}
	return alpha, beta, nil
}
