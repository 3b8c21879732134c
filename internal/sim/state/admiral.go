package state

import "github.com/signalsfoundry/fleetsim/model"

// Admiral is the per-player strategic and economic record.
type Admiral struct {
	Name   string
	Human  bool
	Cash   int64
	Income int64
	Scores [model.ScoreCount]int64

	Flagship Handle
	Control  Handle
	Target   Handle

	// Losses counts the admiral's ships destroyed.
	Losses int
}

// Pay adds amount to the balance, flooring at zero.
func (a *Admiral) Pay(amount int64) {
	a.Cash += amount
	if a.Cash < 0 {
		a.Cash = 0
	}
}

// AlterScore adds amount to counter which. Unknown counters are ignored.
func (a *Admiral) AlterScore(which int, amount int64) {
	if which < 0 || which >= len(a.Scores) {
		return
	}
	a.Scores[which] += amount
}

// Score returns counter which, or zero when it does not exist.
func (a *Admiral) Score(which int) int64 {
	if which < 0 || which >= len(a.Scores) {
		return 0
	}
	return a.Scores[which]
}

func newAdmirals(specs []model.PlayerSpec) []Admiral {
	out := make([]Admiral, len(specs))
	for i, p := range specs {
		out[i] = Admiral{
			Name:   p.Name,
			Human:  p.Human,
			Cash:   p.Cash,
			Income: p.Income,
		}
	}
	return out
}
