package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// stateDim is the size of the filter state (x, y, a, h, vx, vy, va, vh) and
// measureDim the size of the measurement (x, y, a, h)
const (
	stateDim   = 8
	measureDim = 4
)

// KalmanState holds the state estimate of a constant velocity box model
type KalmanState struct {
	// Mean is the state vector of center x, center y, aspect ratio, height
	// followed by their velocities
	Mean []float64
	// Cov is the 8x8 state covariance
	Cov *mat.Dense
}

// KalmanFilter estimates box motion in Xyah space with a constant velocity
// model
type KalmanFilter struct {
	stdWeightPosition float64
	stdWeightVelocity float64
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

// NewKalmanFilter returns a KalmanFilter with the given position and velocity
// uncertainty weights, which are relative to the box height
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float64) *KalmanFilter {

	// motion model is identity with a unit time step linking each position
	// to its velocity
	motionMat := mat.NewDense(stateDim, stateDim, nil)

	for i := 0; i < stateDim; i++ {
		motionMat.Set(i, i, 1)
	}

	for i := 0; i < measureDim; i++ {
		motionMat.Set(i, measureDim+i, 1)
	}

	// observation model picks the position half of the state
	updateMat := mat.NewDense(measureDim, stateDim, nil)

	for i := 0; i < measureDim; i++ {
		updateMat.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// Initiate creates a new state from an unassociated measurement with zero
// velocity
func (kf *KalmanFilter) Initiate(measurement [4]float64) KalmanState {

	mean := make([]float64, stateDim)
	copy(mean, measurement[:])

	h := measurement[3]

	std := []float64{
		2 * kf.stdWeightPosition * h,
		2 * kf.stdWeightPosition * h,
		1e-2,
		2 * kf.stdWeightPosition * h,
		10 * kf.stdWeightVelocity * h,
		10 * kf.stdWeightVelocity * h,
		1e-5,
		10 * kf.stdWeightVelocity * h,
	}

	return KalmanState{
		Mean: mean,
		Cov:  diagSquared(std),
	}
}

// Predict advances the state one time step
func (kf *KalmanFilter) Predict(state *KalmanState) {

	h := state.Mean[3]

	motionCov := diagSquared([]float64{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-2,
		kf.stdWeightPosition * h,
		kf.stdWeightVelocity * h,
		kf.stdWeightVelocity * h,
		1e-5,
		kf.stdWeightVelocity * h,
	})

	var mean mat.VecDense
	mean.MulVec(kf.motionMat, mat.NewVecDense(stateDim, state.Mean))

	for i := 0; i < stateDim; i++ {
		state.Mean[i] = mean.AtVec(i)
	}

	var tmp, cov mat.Dense
	tmp.Mul(kf.motionMat, state.Cov)
	cov.Mul(&tmp, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	state.Cov = &cov
}

// Update corrects the state with a new measurement
func (kf *KalmanFilter) Update(state *KalmanState, measurement [4]float64) error {

	projMean, projCov := kf.project(state)

	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// solve S * K^T = H * P for the transposed kalman gain
	var pht mat.Dense
	pht.Mul(state.Cov, kf.updateMat.T())

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, pht.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(measureDim, nil)

	for i := 0; i < measureDim; i++ {
		innovation.SetVec(i, measurement[i]-projMean.AtVec(i))
	}

	var correction mat.VecDense
	correction.MulVec(gainT.T(), innovation)

	for i := 0; i < stateDim; i++ {
		state.Mean[i] += correction.AtVec(i)
	}

	var ks, kskt, cov mat.Dense
	ks.Mul(gainT.T(), projCov)
	kskt.Mul(&ks, &gainT)
	cov.Sub(state.Cov, &kskt)

	state.Cov = &cov

	return nil
}

// project maps the state into measurement space including measurement noise
func (kf *KalmanFilter) project(state *KalmanState) (*mat.VecDense, *mat.SymDense) {

	h := state.Mean[3]
	std := []float64{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-1,
		kf.stdWeightPosition * h,
	}

	var mean mat.VecDense
	mean.MulVec(kf.updateMat, mat.NewVecDense(stateDim, state.Mean))

	var hp, hpht mat.Dense
	hp.Mul(kf.updateMat, state.Cov)
	hpht.Mul(&hp, kf.updateMat.T())

	cov := mat.NewSymDense(measureDim, nil)

	for i := 0; i < measureDim; i++ {
		for j := i; j < measureDim; j++ {
			v := hpht.At(i, j)

			if i == j {
				v += std[i] * std[i]
			}

			cov.SetSym(i, j, v)
		}
	}

	return &mean, cov
}

// diagSquared returns a square matrix with the squares of std on the diagonal
func diagSquared(std []float64) *mat.Dense {

	n := len(std)
	m := mat.NewDense(n, n, nil)

	for i, v := range std {
		m.Set(i, i, v*v)
	}

	return m
}
