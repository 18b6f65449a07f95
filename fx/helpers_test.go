// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package fx

import "math"

func mathSqrt(v float64) float64 { return math.Sqrt(v) }

func mathSinCos(turns float64) (sin, cos float64) {
	rad := turns * 2 * math.Pi
	return math.Sin(rad), math.Cos(rad)
}
