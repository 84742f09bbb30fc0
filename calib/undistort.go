package calib

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// undistortPoint removes Brown-Conrady lens distortion from a detected pixel
// coordinate and reprojects it with the same camera matrix, so the result
// stays in pixel units. Distortion coefficient rows are ordered
// (k1, k2, p1, p2, k3).
func undistortPoint(pt r2.Point, camMat, distCoeffs *mat.Dense) r2.Point {
	fx, fy := camMat.At(0, 0), camMat.At(1, 1)
	cx, cy := camMat.At(0, 2), camMat.At(1, 2)
	k1, k2 := distCoeffs.At(0, 0), distCoeffs.At(0, 1)
	p1, p2 := distCoeffs.At(0, 2), distCoeffs.At(0, 3)
	k3 := distCoeffs.At(0, 4)

	xd := (pt.X - cx) / fx
	yd := (pt.Y - cy) / fy
	xu, yu := undistortNormalized(xd, yd, k1, k2, k3, p1, p2)
	return r2.Point{X: xu*fx + cx, Y: yu*fy + cy}
}

// undistortNormalized inverts the forward Brown-Conrady model
//
//	x_d = x_u*(1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x_u*y_u + p2*(r² + 2*x_u²)
//	y_d = y_u*(1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x_u*y_u + p1*(r² + 2*y_u²)
//
// with Newton-Raphson on the 2x2 Jacobian, starting from the distorted
// point.
func undistortNormalized(xd, yd, k1, k2, k3, p1, p2 float64) (float64, float64) {
	xu, yu := xd, yd

	const maxIterations = 20
	const tolerance = 1e-10

	for i := 0; i < maxIterations; i++ {
		r2v := xu*xu + yu*yu
		r4 := r2v * r2v
		r6 := r4 * r2v

		radial := 1.0 + k1*r2v + k2*r4 + k3*r6
		xdEst := xu*radial + 2*p1*xu*yu + p2*(r2v+2*xu*xu)
		ydEst := yu*radial + 2*p2*xu*yu + p1*(r2v+2*yu*yu)

		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		dRadial := k1 + 2*k2*r2v + 3*k3*r4
		j00 := radial + 2*xu*xu*dRadial + 2*p1*yu + 6*p2*xu
		j01 := 2*xu*yu*dRadial + 2*p1*xu + 2*p2*yu
		j10 := 2*xu*yu*dRadial + 2*p2*yu + 2*p1*xu
		j11 := radial + 2*yu*yu*dRadial + 2*p2*xu + 6*p1*yu

		det := j00*j11 - j01*j10
		if det == 0 {
			break
		}
		xu -= (j11*errX - j01*errY) / det
		yu -= (-j10*errX + j00*errY) / det
	}
	return xu, yu
}

// epiline returns the normalized epipolar line (a, b, c) induced in the
// opposite image by a point, following the solver's convention: whichImage
// is 1 for a left-image point (the line lands in the right image) and 2 for
// a right-image point. The line is scaled so that a²+b² = 1, making
// |x*a + y*b + c| a pixel distance.
func epiline(pt r2.Point, fund *mat.Dense, whichImage int) (float64, float64, float64) {
	x := mat.NewVecDense(3, []float64{pt.X, pt.Y, 1})
	var line mat.VecDense
	if whichImage == 1 {
		line.MulVec(fund, x)
	} else {
		line.MulVec(fund.T(), x)
	}
	a, b, c := line.AtVec(0), line.AtVec(1), line.AtVec(2)
	norm := math.Hypot(a, b)
	if norm == 0 {
		return a, b, c
	}
	return a / norm, b / norm, c / norm
}
