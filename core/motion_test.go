package core

import (
	"testing"

	"github.com/signalsfoundry/fleetsim/model"
)

const (
	baseHull = iota
	baseMine
	baseBeacon
	baseTorpedo
)

func motionScenario() *model.Scenario {
	return &model.Scenario{
		Players: twoPlayers(),
		BaseObjects: []model.BaseObject{
			baseHull: {Name: "hull", Health: 100, Radius: 10, Attributes: model.AttrIsShip | model.AttrCanBeHit},
			baseMine: {Name: "mine", Lifetime: 5, OnExpire: model.ActionRange{First: 0, Count: 1}},
			baseBeacon: {
				Name: "beacon", ActivatePeriod: 2,
				OnActivate: model.ActionRange{First: 1, Count: 1},
			},
			baseTorpedo: {
				Name: "torpedo", Health: 1, Radius: 5, Attributes: model.AttrCanCollide,
				OnCollide: model.ActionRange{First: 2, Count: 2},
			},
		},
		Actions: []model.Action{
			{Verb: model.AlterCash{Amount: 10, Player: model.Player(0)}},
			{Verb: model.AlterCash{Amount: 1, Player: model.Player(0)}},
			{Verb: model.AlterHealth{Amount: -30}},
			{Verb: model.Die{How: model.DieDestroy}, Reflexive: true},
		},
	}
}

func TestAdvanceMotionIntegratesVelocity(t *testing.T) {
	in := newInterpreter(t, motionScenario())
	o := spawnAt(t, in, baseHull, 0, model.Point{X: 10, Y: 10})
	o.Velocity = model.FixedPoint{X: model.FixedOne / 2, Y: -model.FixedOne}

	var k Kinematics
	k.AdvanceMotion(in, 3)
	if o.Location != (model.Point{X: 11, Y: 7}) {
		t.Fatalf("location after 3 units = %+v, want {11 7}", o.Location)
	}
	k.AdvanceMotion(in, 1)
	if o.Location.X != 12 || o.Residual.X != 0 {
		t.Fatalf("residual not carried: location %+v residual %+v", o.Location, o.Residual)
	}
}

func TestAdvanceMotionExpiresAgedObjects(t *testing.T) {
	in := newInterpreter(t, motionScenario())
	mine := spawnAt(t, in, baseMine, 1, model.Point{})
	h := mine.Handle()

	var k Kinematics
	k.AdvanceMotion(in, 4)
	if in.World().Objects.Resolve(h) == nil {
		t.Fatalf("mine expired one unit early")
	}
	k.AdvanceMotion(in, 1)
	if in.World().Objects.Resolve(h) != nil {
		t.Fatalf("mine still live after its lifetime")
	}
	if cash := in.World().Admiral(0).Cash; cash != 10 {
		t.Fatalf("expire actions paid %d, want 10", cash)
	}
}

func TestAdvanceMotionLeavesImmortalObjects(t *testing.T) {
	in := newInterpreter(t, motionScenario())
	hull := spawnAt(t, in, baseHull, 0, model.Point{})

	Kinematics{}.AdvanceMotion(in, 1000)
	if !hull.Active || hull.Age != -1 {
		t.Fatalf("immortal hull changed: active=%v age=%d", hull.Active, hull.Age)
	}
}

func TestAdvanceMotionFiresPeriodicActivation(t *testing.T) {
	in := newInterpreter(t, motionScenario())
	spawnAt(t, in, baseBeacon, 1, model.Point{})

	var k Kinematics
	for i := 0; i < 4; i++ {
		k.AdvanceMotion(in, 1)
	}
	if cash := in.World().Admiral(0).Cash; cash != 2 {
		t.Fatalf("beacon activated %d times in 4 units, want 2", cash)
	}
}

func TestDetectCollisionsRunsCollideActions(t *testing.T) {
	in := newInterpreter(t, motionScenario())
	ship := spawnAt(t, in, baseHull, 1, model.Point{X: 12})
	torpedo := spawnAt(t, in, baseTorpedo, 0, model.Point{})
	friendly := spawnAt(t, in, baseTorpedo, 1, model.Point{X: 14})
	far := spawnAt(t, in, baseTorpedo, 0, model.Point{X: 500})

	Kinematics{}.DetectCollisions(in)

	if ship.Health != 70 {
		t.Fatalf("ship health = %d, want 70", ship.Health)
	}
	if torpedo.Active {
		t.Fatalf("torpedo survived its own collision")
	}
	if !friendly.Active || !far.Active {
		t.Fatalf("same-owner or distant torpedo collided")
	}
}
