// Package color converts byte RGB samples through linear RGB, CIE XYZ, CIE Lab
// and LCH, and compares colors by Euclidean distance in Lab.
//
// All conversions assume the D65 illuminant and the 2° observer.
package color

import (
	"math"

	"pill-counter/internal/models"
)

// LinearRGB holds linearized channels in [0, 1].
type LinearRGB struct {
	R, G, B float64
}

// XYZ is a CIE 1931 XYZ color scaled so that Y of white is 100.
type XYZ struct {
	X, Y, Z float64
}

// Lab is a CIE L*a*b* color.
type Lab struct {
	L, A, B float64
}

// LCH is the cylindrical form of Lab. H is in degrees.
type LCH struct {
	L, C, H float64
}

// D65 reference white.
var D65 = XYZ{X: 95.047, Y: 100, Z: 108.883}

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
)

// SRGBDecode linearizes a gamma-encoded channel in [0, 1].
func SRGBDecode(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RGBToLinear normalizes a byte sample and removes the sRGB transfer curve.
func RGBToLinear(c models.RGB) LinearRGB {
	return LinearRGB{
		R: SRGBDecode(float64(c.R) / 255),
		G: SRGBDecode(float64(c.G) / 255),
		B: SRGBDecode(float64(c.B) / 255),
	}
}

// RGBToXYZ applies the BT.709 primaries matrix and scales the result by 100.
func RGBToXYZ(c models.RGB) XYZ {
	l := RGBToLinear(c)
	return XYZ{
		X: (0.4124*l.R + 0.3576*l.G + 0.1805*l.B) * 100,
		Y: (0.2126*l.R + 0.7152*l.G + 0.0722*l.B) * 100,
		Z: (0.0193*l.R + 0.1192*l.G + 0.9505*l.B) * 100,
	}
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + 16.0/116.0
}

// XYZToLab converts relative to the D65 white point.
func XYZToLab(c XYZ) Lab {
	fx := labF(c.X / D65.X)
	fy := labF(c.Y / D65.Y)
	fz := labF(c.Z / D65.Z)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// RGBToLab is XYZToLab(RGBToXYZ(c)).
func RGBToLab(c models.RGB) Lab {
	return XYZToLab(RGBToXYZ(c))
}

// LabDistance is the Euclidean distance between two Lab colors.
func LabDistance(a, b Lab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// LabToLCH converts to lightness, chroma and hue.
func LabToLCH(c Lab) LCH {
	return LCH{
		L: c.L,
		C: math.Sqrt(c.A*c.A + c.B*c.B),
		H: ABToHue(c.A, c.B),
	}
}

// ABToHue returns the hue angle in degrees for the a and b axes.
//
// Axis-aligned inputs map exactly to 0, 90, 180 and 270. Off-axis inputs use
// atan(b/a) plus a quadrant bias of 0 (a>0, b>0), 180 (a<0) or 360 (a>0, b<0).
// This is not a general atan2: callers rely on the exact values it produces.
func ABToHue(a, b float64) float64 {
	switch {
	case a >= 0 && b == 0:
		return 0
	case a < 0 && b == 0:
		return 180
	case a == 0 && b > 0:
		return 90
	case a == 0 && b < 0:
		return 270
	}

	var bias float64
	switch {
	case a > 0 && b > 0:
		bias = 0
	case a < 0:
		bias = 180
	case a > 0 && b < 0:
		bias = 360
	}
	return RadiansToDegrees(math.Atan(b/a)) + bias
}

// Hue is the LCH hue of a byte color.
func Hue(c models.RGB) float64 {
	lab := RGBToLab(c)
	return ABToHue(lab.A, lab.B)
}

// CompareRGB returns the perceptual distance between two byte colors.
func CompareRGB(a, b models.RGB) float64 {
	return LabDistance(RGBToLab(a), RGBToLab(b))
}

func RadiansToDegrees(r float64) float64 {
	return r * (180 / math.Pi)
}

func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
