package walls

// Ref describes one wall relative to spot.
type Ref struct {
	Strike      float64 `json:"strike"`
	Type        Type    `json:"type"`
	Exposure    float64 `json:"exposure"`
	Distance    float64 `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

type Summary struct {
	TotalWalls          int      `json:"total_walls"`
	CallWalls           int      `json:"call_walls"`
	PutWalls            int      `json:"put_walls"`
	PrimaryCallWall     *Ref     `json:"primary_call_wall,omitempty"`
	PrimaryPutWall      *Ref     `json:"primary_put_wall,omitempty"`
	NearestWall         *Ref     `json:"nearest_wall,omitempty"`
	AverageCallDistance *float64 `json:"average_call_distance,omitempty"`
	AveragePutDistance  *float64 `json:"average_put_distance,omitempty"`
}

func ref(w Wall, spot float64) *Ref {
	r := &Ref{Strike: w.Strike, Type: w.Type, Exposure: w.ExposureValue, Distance: w.DistanceFromSpot}
	if spot > 0 {
		r.DistancePct = w.DistanceFromSpot / spot * 100
	}
	return r
}

func averageDistance(ws []Wall) *float64 {
	if len(ws) == 0 {
		return nil
	}
	var sum float64
	for _, w := range ws {
		sum += w.DistanceFromSpot
	}
	avg := sum / float64(len(ws))
	return &avg
}

// Summarize reports the primary walls on each side and the wall nearest spot.
func Summarize(w Walls, spot float64) Summary {
	s := Summary{
		CallWalls:           len(w.Call),
		PutWalls:            len(w.Put),
		TotalWalls:          len(w.Call) + len(w.Put),
		AverageCallDistance: averageDistance(w.Call),
		AveragePutDistance:  averageDistance(w.Put),
	}
	if len(w.Call) > 0 {
		s.PrimaryCallWall = ref(w.Call[0], spot)
	}
	if len(w.Put) > 0 {
		s.PrimaryPutWall = ref(w.Put[0], spot)
	}

	for _, wall := range w.All() {
		if s.NearestWall == nil || wall.DistanceFromSpot < s.NearestWall.Distance {
			s.NearestWall = ref(wall, spot)
		}
	}
	return s
}
