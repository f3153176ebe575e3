package model

import (
    "errors"
    "fmt"
    "math"

    "gonum.org/v1/gonum/floats"
    "gonum.org/v1/gonum/mat"
    "gonum.org/v1/gonum/stat"
)

// Estimator fits a linear model with intercept.
type Estimator interface {
    Fit(x [][]float64, y []float64) (intercept float64, coef []float64, err error)
}

// OLS is ordinary least squares solved by QR decomposition.
type OLS struct{}

func (OLS) Fit(x [][]float64, y []float64) (float64, []float64, error) {
    n := len(x)
    if n == 0 || n != len(y) {
        return 0, nil, fmt.Errorf("ols: %d rows, %d targets", n, len(y))
    }
    k := len(x[0])
    if n < k+1 {
        return 0, nil, fmt.Errorf("ols: %w: %d rows for %d coefficients", ErrInsufficientRows, n, k+1)
    }
    design := mat.NewDense(n, k+1, nil)
    for i, r := range x {
        if len(r) != k {
            return 0, nil, fmt.Errorf("ols: row %d has %d features, want %d", i, len(r), k)
        }
        design.Set(i, 0, 1)
        for j, v := range r {
            design.Set(i, j+1, v)
        }
    }

    var beta mat.VecDense
    if err := beta.SolveVec(design, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
        var cond mat.Condition
        if errors.As(err, &cond) {
            return 0, nil, fmt.Errorf("ols: %w (condition %g)", ErrSingularDesign, float64(cond))
        }
        return 0, nil, fmt.Errorf("ols: %w", err)
    }
    coef := make([]float64, k)
    for j := range coef {
        coef[j] = beta.AtVec(j + 1)
    }
    return beta.AtVec(0), coef, nil
}

func predict(intercept float64, coef, x []float64) float64 {
    return intercept + floats.Dot(coef, x)
}

// rSquared returns the coefficient of determination, or 0 when it is
// undefined (fewer than two rows or a constant target).
func rSquared(estimates, values []float64) float64 {
    if len(values) < 2 {
        return 0
    }
    r2 := stat.RSquaredFrom(estimates, values, nil)
    if math.IsNaN(r2) || math.IsInf(r2, 0) {
        return 0
    }
    return r2
}

var _ Estimator = OLS{}
