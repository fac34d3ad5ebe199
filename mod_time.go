package pointmorph

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
	// Elapsed is the sum of every Dt so far.
	Elapsed time.Duration
	Frame   uint64

	fixedStep time.Duration
}

// Seconds returns Dt as float32 seconds, the unit tweens and decay use.
func (t *Time) Seconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule provides the Time resource. A non-zero FixedStep makes every
// frame advance by exactly that much, which headless runs rely on for
// reproducible output.
type TimeModule struct {
	FixedStep time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time:      time.Now(),
		Dt:        0,
		fixedStep: mod.FixedStep,
	})
	cmd.UseSystem(System(timeSystem).InStage(Prelude).RunAlways())
}

func timeSystem(timeResource *Time) {
	if timeResource.fixedStep > 0 {
		timeResource.Dt = timeResource.fixedStep
		timeResource.Time = timeResource.Time.Add(timeResource.fixedStep)
	} else {
		now := time.Now()
		timeResource.Dt = now.Sub(timeResource.Time)
		timeResource.Time = now
	}
	timeResource.Elapsed += timeResource.Dt
	timeResource.Frame++
}
