package walls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
)

func newTestAnalyzer(t *testing.T, threshold float64, max int) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(threshold, max)
	require.NoError(t, err)
	return a
}

func TestCallWalls_DominantStrike(t *testing.T) {
	aggs := []strike.Aggregate{strike.NewAggregate(500, -90, 0, 0)}
	for i := 0; i < 9; i++ {
		aggs = append(aggs, strike.NewAggregate(510+float64(i)*5, -10.0/9, 0, 0))
	}

	walls := newTestAnalyzer(t, 0.05, 5).CallWalls(aggs, 505)

	require.Len(t, walls, 1)
	assert.Equal(t, 500.0, walls[0].Strike)
	assert.Equal(t, 1, walls[0].SignificanceRank)
	assert.Equal(t, CallWall, walls[0].Type)
	assert.Equal(t, -90.0, walls[0].ExposureValue)
	assert.Equal(t, 5.0, walls[0].DistanceFromSpot)
}

func TestCallWalls_RankingAndTruncation(t *testing.T) {
	aggs := []strike.Aggregate{
		strike.NewAggregate(100, -10, 5, 0),
		strike.NewAggregate(105, -40, 5, 0),
		strike.NewAggregate(110, -20, 5, 0),
		strike.NewAggregate(115, -30, 5, 0),
		strike.NewAggregate(120, 15, 5, 0),
	}

	walls := newTestAnalyzer(t, 0, 3).CallWalls(aggs, 110)

	require.Len(t, walls, 3)
	assert.Equal(t, []float64{105, 115, 110}, []float64{walls[0].Strike, walls[1].Strike, walls[2].Strike})
	for i, w := range walls {
		assert.Equal(t, i+1, w.SignificanceRank)
	}
}

func TestCallWalls_TiesKeepStrikeOrder(t *testing.T) {
	aggs := []strike.Aggregate{
		strike.NewAggregate(100, -10, 0, 0),
		strike.NewAggregate(105, -10, 0, 0),
		strike.NewAggregate(110, -10, 0, 0),
	}

	walls := newTestAnalyzer(t, 0.05, 5).CallWalls(aggs, 105)

	require.Len(t, walls, 3)
	assert.Equal(t, 100.0, walls[0].Strike)
	assert.Equal(t, 105.0, walls[1].Strike)
	assert.Equal(t, 110.0, walls[2].Strike)
}

func TestPutWalls_Symmetric(t *testing.T) {
	aggs := []strike.Aggregate{
		strike.NewAggregate(90, -5, 80, 0),
		strike.NewAggregate(95, -5, -3, 0),
		strike.NewAggregate(100, -5, 20, 0),
	}

	walls := newTestAnalyzer(t, 0.05, 5).PutWalls(aggs, 100)

	require.Len(t, walls, 2)
	assert.Equal(t, 90.0, walls[0].Strike)
	assert.Equal(t, PutWall, walls[0].Type)
	assert.Equal(t, 100.0, walls[1].Strike)
	assert.Equal(t, 0.0, walls[1].DistanceFromSpot)
}

func TestWalls_NoCandidates(t *testing.T) {
	aggs := []strike.Aggregate{strike.NewAggregate(100, 0, 0, 10), strike.NewAggregate(105, 3, -2, 10)}
	w := newTestAnalyzer(t, 0.05, 5).All(aggs, 100)
	assert.Empty(t, w.Call)
	assert.Empty(t, w.Put)
	assert.Empty(t, newTestAnalyzer(t, 0.05, 5).All(nil, 100).All())
}

func TestWalls_ThresholdMonotonic(t *testing.T) {
	var aggs []strike.Aggregate
	for i, v := range []float64{-3, -40, -7, -12, -1, -25, -9, -2} {
		aggs = append(aggs, strike.NewAggregate(100+float64(i), v, -v, 0))
	}

	prev := -1
	for _, th := range []float64{0, 0.01, 0.03, 0.05, 0.1, 0.2, 0.4, 0.6, 1} {
		n := len(newTestAnalyzer(t, th, 8).CallWalls(aggs, 100))
		if prev >= 0 {
			assert.LessOrEqual(t, n, prev, "threshold %v", th)
		}
		prev = n
	}
}

func TestNewAnalyzer_InvalidParams(t *testing.T) {
	_, err := NewAnalyzer(-0.1, 5)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewAnalyzer(1.1, 5)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewAnalyzer(0.05, 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestNearby(t *testing.T) {
	ws := []Wall{
		{Strike: 120, DistanceFromSpot: 20},
		{Strike: 95, DistanceFromSpot: 5},
		{Strike: 108, DistanceFromSpot: 8},
	}

	near := Nearby(ws, 100, 0.1)

	require.Len(t, near, 2)
	assert.Equal(t, 95.0, near[0].Strike)
	assert.Equal(t, 108.0, near[1].Strike)
}

func TestSummarize(t *testing.T) {
	w := Walls{
		Call: []Wall{
			{Strike: 110, ExposureValue: -50, Type: CallWall, DistanceFromSpot: 10, SignificanceRank: 1},
			{Strike: 104, ExposureValue: -20, Type: CallWall, DistanceFromSpot: 4, SignificanceRank: 2},
		},
		Put: []Wall{
			{Strike: 90, ExposureValue: 70, Type: PutWall, DistanceFromSpot: 10, SignificanceRank: 1},
		},
	}

	s := Summarize(w, 100)

	assert.Equal(t, 3, s.TotalWalls)
	require.NotNil(t, s.PrimaryCallWall)
	assert.Equal(t, 110.0, s.PrimaryCallWall.Strike)
	assert.Equal(t, 10.0, s.PrimaryCallWall.DistancePct)
	require.NotNil(t, s.PrimaryPutWall)
	assert.Equal(t, 90.0, s.PrimaryPutWall.Strike)
	require.NotNil(t, s.NearestWall)
	assert.Equal(t, 104.0, s.NearestWall.Strike)
	require.NotNil(t, s.AverageCallDistance)
	assert.Equal(t, 7.0, *s.AverageCallDistance)
	require.NotNil(t, s.AveragePutDistance)
	assert.Equal(t, 10.0, *s.AveragePutDistance)

	empty := Summarize(Walls{}, 100)
	assert.Nil(t, empty.PrimaryCallWall)
	assert.Nil(t, empty.NearestWall)
	assert.Nil(t, empty.AverageCallDistance)
}
