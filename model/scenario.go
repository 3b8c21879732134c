package model

// ScoreCount is the number of score counters each admiral carries.
const ScoreCount = 3

// Scenario bundles the template tables for one level.
type Scenario struct {
	ID      int
	Name    string
	ParTime int64

	Players     []PlayerSpec
	BaseObjects []BaseObject
	Actions     []Action
	Initials    []InitialObject
	Conditions  []Condition
}
