package whisper

// OperationCount is the size of the synthetic work for the pair's current
// state: beta * (alpha * d)², where d is the sensor/source distance in
// meters plus the arc around the obstacle when the path is blocked, and the
// result is scaled by the active noise multiplier. It does not modify the
// pair.
func (p *Pair) OperationCount() int {
	d := p.DistanceMeters()

	if p.cfg.Occluding {
		// a tangent touch adds no path length
		if occ := p.Occlusion(); occ.Points == 2 {
			d += float64(p.cfg.ObstacleRadius) * occ.Angle() / float64(p.cfg.UnitsPerMeter)
		}
	}

	d *= p.cfg.Alpha
	cost := p.cfg.Beta * (d * d)

	if ev, ok := p.ActiveNoise(); ok {
		cost *= ev.Factor
	}
	return int(cost)
}
