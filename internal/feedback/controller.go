// Package feedback predicts the weight of a task's next job from the error of
// the jobs before it and maps that prediction onto a table of service levels.
package feedback

// Controller is the per-task estimator. Errors are whole weight units.
//
// Update folds the previous error into TotalErr before recording the new
// one, so the integral term always trails the proportional term by one job.
type Controller struct {
	Jobs     int
	P        float64
	I        float64
	Err      int
	TotalErr int
}

// NewController returns a zeroed controller with the given gains.
func NewController(p, i float64) *Controller {
	return &Controller{P: p, I: i}
}

// Predict returns P*Err + I*TotalErr truncated toward zero. It does not
// change the controller.
func (c *Controller) Predict() int {
	return int(c.P*float64(c.Err) + c.I*float64(c.TotalErr))
}

// Update records a finished job. Call it once per job, after the job's
// actual weight is known and before the next Predict.
func (c *Controller) Update(actual, estimated int) {
	c.TotalErr += c.Err
	c.Err = estimated - actual
	c.Jobs++
}
