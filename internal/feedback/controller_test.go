package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictIsPure(t *testing.T) {
	t.Parallel()

	c := &Controller{P: 0.5, I: 0.25, Err: 4, TotalErr: 8}
	assert.Equal(t, 4, c.Predict())
	assert.Equal(t, 4, c.Predict())
	assert.Equal(t, Controller{P: 0.5, I: 0.25, Err: 4, TotalErr: 8}, *c)
}

func TestPredictTruncates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, (&Controller{P: 0.5, Err: 3}).Predict())
	assert.Equal(t, -1, (&Controller{P: 0.5, Err: -3}).Predict())
	assert.Equal(t, 0, NewController(0.5, 0.25).Predict())
}

func TestUpdateLagsIntegralByOneJob(t *testing.T) {
	t.Parallel()

	c := NewController(1, 1)

	c.Update(2, 5)
	assert.Equal(t, 3, c.Err)
	assert.Equal(t, 0, c.TotalErr, "first error is not yet integrated")
	assert.Equal(t, 1, c.Jobs)

	c.Update(4, 3)
	assert.Equal(t, -1, c.Err)
	assert.Equal(t, 3, c.TotalErr)
	assert.Equal(t, 2, c.Jobs)

	c.Update(1, 1)
	assert.Equal(t, 0, c.Err)
	assert.Equal(t, 2, c.TotalErr)
}

func TestUpdateWithExactEstimateClearsError(t *testing.T) {
	t.Parallel()

	c := &Controller{P: 0.5, I: 0.25, Err: 6, TotalErr: 10}
	est := c.Predict()
	c.Update(est, est)

	assert.Equal(t, 0, c.Err)
	assert.Equal(t, 16, c.TotalErr)
	assert.Equal(t, 4, c.Predict())
}

func TestSelectClamps(t *testing.T) {
	t.Parallel()

	l := DefaultLevels(time.Second)
	tests := []struct {
		estimate int
		want     int
	}{
		{-50, 0}, {-1, 0}, {0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {1000, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Select(tt.estimate).Number, "estimate %d", tt.estimate)
	}
	assert.Equal(t, 2.1, l.Select(2).RelativeWork)
}

func TestNewLevels(t *testing.T) {
	t.Parallel()

	t.Run("renumbers", func(t *testing.T) {
		t.Parallel()
		in := []ServiceLevel{
			{RelativeWork: 1, Number: 9}, {RelativeWork: 1.5}, {RelativeWork: 2}, {RelativeWork: 4},
		}
		l, err := NewLevels(in)
		require.NoError(t, err)
		for i, lv := range l {
			assert.Equal(t, i, lv.Number)
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		t.Parallel()
		_, err := NewLevels([]ServiceLevel{{RelativeWork: 1}})
		assert.ErrorIs(t, err, ErrLevels)
	})

	t.Run("decreasing work", func(t *testing.T) {
		t.Parallel()
		_, err := NewLevels([]ServiceLevel{
			{RelativeWork: 1}, {RelativeWork: 3}, {RelativeWork: 2}, {RelativeWork: 4},
		})
		assert.ErrorIs(t, err, ErrLevels)
	})

	t.Run("zero work", func(t *testing.T) {
		t.Parallel()
		_, err := NewLevels([]ServiceLevel{
			{RelativeWork: 0}, {RelativeWork: 1}, {RelativeWork: 2}, {RelativeWork: 3},
		})
		assert.ErrorIs(t, err, ErrLevels)
	})
}

func TestDefaultLevelsAreValid(t *testing.T) {
	t.Parallel()

	l := DefaultLevels(time.Second)
	require.NoError(t, l.Validate())
	assert.Equal(t, time.Second, l[3].Period)
	assert.Equal(t, 5.0, l[3].QoS)
}
