package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/model"
)

// internal YAML shapes – keep them unexported so the file format can evolve
// without touching the model.
type scenarioYAML struct {
	ID         int             `yaml:"id"`
	Name       string          `yaml:"name"`
	ParTime    int64           `yaml:"par_time"`
	Players    []playerYAML    `yaml:"players"`
	Bases      []baseYAML      `yaml:"bases"`
	Initials   []initialYAML   `yaml:"initials"`
	Conditions []conditionYAML `yaml:"conditions"`
}

type playerYAML struct {
	Name   string `yaml:"name"`
	Human  bool   `yaml:"human"`
	Cash   int64  `yaml:"cash"`
	Income int64  `yaml:"income"`
}

type baseYAML struct {
	Name           string       `yaml:"name"`
	Attributes     []string     `yaml:"attributes"`
	LevelKeyTag    uint32       `yaml:"level_key_tag"`
	Health         int32        `yaml:"health"`
	Energy         int32        `yaml:"energy"`
	Mass           float64      `yaml:"mass"`
	MaxVelocity    float64      `yaml:"max_velocity"`
	Thrust         float64      `yaml:"thrust"`
	TurnRate       int32        `yaml:"turn_rate"`
	Radius         int32        `yaml:"radius"`
	Lifetime       int64        `yaml:"lifetime"` // 0 = never expires
	ActivatePeriod int64        `yaml:"activate_period"`
	Pulse          string       `yaml:"pulse"`
	Beam           string       `yaml:"beam"`
	Special        string       `yaml:"special"`
	OnCreate       []actionYAML `yaml:"on_create"`
	OnDestroy      []actionYAML `yaml:"on_destroy"`
	OnExpire       []actionYAML `yaml:"on_expire"`
	OnCollide      []actionYAML `yaml:"on_collide"`
	OnActivate     []actionYAML `yaml:"on_activate"`
}

type initialYAML struct {
	Name     string `yaml:"name"`
	Base     string `yaml:"base"`
	Owner    int    `yaml:"owner"`
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
	Hidden   bool   `yaml:"hidden"`
	Flagship bool   `yaml:"flagship"`
	Target   string `yaml:"target"` // initial name
}

type conditionYAML struct {
	Name       string        `yaml:"name"`
	When       predicateYAML `yaml:"when"`
	Subject    string        `yaml:"subject"`
	Direct     string        `yaml:"direct"`
	Persistent bool          `yaml:"persistent"`
	Disabled   bool          `yaml:"disabled"`
	Actions    []actionYAML  `yaml:"actions"`
}

type predicateYAML struct {
	Kind     string  `yaml:"kind"`
	Player   string  `yaml:"player"`
	Which    int     `yaml:"which"`
	Op       string  `yaml:"op"`
	Value    int64   `yaml:"value"`
	Initial  string  `yaml:"initial"`
	Units    int64   `yaml:"units"`
	Percent  int64   `yaml:"percent"`
	Distance int64   `yaml:"distance"` // compared squared
	Speed    float64 `yaml:"speed"`
	Message  int     `yaml:"message"`
}

// actionYAML is the union of every verb's arguments; each verb reads the
// fields it needs.
type actionYAML struct {
	Verb        string   `yaml:"verb"`
	Reflexive   bool     `yaml:"reflexive"`
	Delay       int64    `yaml:"delay"`
	Inclusive   []string `yaml:"inclusive"`
	LevelKeyTag *uint32  `yaml:"level_key_tag"`
	OwnerFilter string   `yaml:"owner_filter"` // any | same | different
	Subject     string   `yaml:"subject"`
	Direct      string   `yaml:"direct"`

	Base               string   `yaml:"base"`
	Count              int32    `yaml:"count"`
	CountRange         int32    `yaml:"count_range"`
	RelativeVelocity   bool     `yaml:"relative_velocity"`
	RelativeDirection  bool     `yaml:"relative_direction"`
	RandomDistance     int32    `yaml:"random_distance"`
	InheritDestination bool     `yaml:"inherit_destination"`
	Sound              int32    `yaml:"sound"`
	Range              int32    `yaml:"range"`
	Volume             int32    `yaml:"volume"`
	Absolute           bool     `yaml:"absolute"`
	Speed              float64  `yaml:"speed"`
	Hue                uint8    `yaml:"hue"`
	How                string   `yaml:"how"`
	Amount             int64    `yaml:"amount"`
	First              string   `yaml:"first"` // initial or condition name
	Player             string   `yaml:"player"`
	Relative           bool     `yaml:"relative"`
	Armed              *bool    `yaml:"armed"`
	Minimum            int64    `yaml:"minimum"`
	Slot               string   `yaml:"slot"`
	Which              int      `yaml:"which"`
	NextLevel          int      `yaml:"next_level"`
	Text               string   `yaml:"text"`
	ID                 int      `yaml:"id"`
	Pages              int      `yaml:"pages"`
	Length             int32    `yaml:"length"`
	Color              uint8    `yaml:"color"`
	Shade              uint8    `yaml:"shade"`
	Keys               []string `yaml:"keys"`
}

// LoadScenarioFile opens path and decodes it with LoadScenario.
func LoadScenarioFile(path string) (*model.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// LoadScenario reads a YAML scenario from r. Bases, initials and conditions
// refer to one another by name; action lists are written inline and
// flattened into the scenario's action table.
//
// It fails on YAML errors and on names or enumerations it cannot resolve.
// Cross-reference checks on the finished tables belong to kb.Catalog.Validate.
func LoadScenario(r io.Reader) (*model.Scenario, error) {
	var doc scenarioYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	l := &loader{
		doc:        &doc,
		bases:      make(map[string]int, len(doc.Bases)),
		initials:   make(map[string]int, len(doc.Initials)),
		conditions: make(map[string]int, len(doc.Conditions)),
		sc: &model.Scenario{
			ID:      doc.ID,
			Name:    doc.Name,
			ParTime: doc.ParTime,
		},
	}
	if err := l.indexNames(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	if err := l.build(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return l.sc, nil
}

type loader struct {
	doc        *scenarioYAML
	sc         *model.Scenario
	bases      map[string]int
	initials   map[string]int
	conditions map[string]int
}

func (l *loader) indexNames() error {
	for i, b := range l.doc.Bases {
		if b.Name == "" {
			return fmt.Errorf("base %d: empty name", i)
		}
		if _, dup := l.bases[b.Name]; dup {
			return fmt.Errorf("base %q: duplicate name", b.Name)
		}
		l.bases[b.Name] = i
	}
	for i, in := range l.doc.Initials {
		if in.Name == "" {
			continue
		}
		if _, dup := l.initials[in.Name]; dup {
			return fmt.Errorf("initial %q: duplicate name", in.Name)
		}
		l.initials[in.Name] = i
	}
	for i, c := range l.doc.Conditions {
		if c.Name == "" {
			continue
		}
		if _, dup := l.conditions[c.Name]; dup {
			return fmt.Errorf("condition %q: duplicate name", c.Name)
		}
		l.conditions[c.Name] = i
	}
	return nil
}

func (l *loader) build() error {
	for _, p := range l.doc.Players {
		l.sc.Players = append(l.sc.Players, model.PlayerSpec(p))
	}

	for _, b := range l.doc.Bases {
		base, err := l.base(b)
		if err != nil {
			return fmt.Errorf("base %q: %w", b.Name, err)
		}
		l.sc.BaseObjects = append(l.sc.BaseObjects, base)
	}

	for i, in := range l.doc.Initials {
		ref, err := l.baseRef(in.Base)
		if err != nil || ref == model.NoBase {
			return fmt.Errorf("initial %d: base %q: unknown", i, in.Base)
		}
		target, err := l.initialRef(in.Target)
		if err != nil {
			return fmt.Errorf("initial %d: %w", i, err)
		}
		l.sc.Initials = append(l.sc.Initials, model.InitialObject{
			Base:     ref,
			Owner:    in.Owner,
			Location: model.Point{X: in.X, Y: in.Y},
			Hidden:   in.Hidden,
			Flagship: in.Flagship,
			Target:   target,
		})
	}

	for i, c := range l.doc.Conditions {
		cond, err := l.condition(c)
		if err != nil {
			return fmt.Errorf("condition %d (%s): %w", i, c.Name, err)
		}
		l.sc.Conditions = append(l.sc.Conditions, cond)
	}
	return nil
}

func (l *loader) base(b baseYAML) (model.BaseObject, error) {
	attrs, err := model.ParseAttributes(b.Attributes)
	if err != nil {
		return model.BaseObject{}, err
	}
	out := model.BaseObject{
		Name:           b.Name,
		Attributes:     attrs,
		LevelKeyTag:    b.LevelKeyTag,
		Health:         b.Health,
		Energy:         b.Energy,
		Mass:           model.FixedFromFloat(b.Mass),
		MaxVelocity:    model.FixedFromFloat(b.MaxVelocity),
		Thrust:         model.FixedFromFloat(b.Thrust),
		TurnRate:       b.TurnRate,
		Radius:         b.Radius,
		Lifetime:       b.Lifetime,
		ActivatePeriod: b.ActivatePeriod,
	}
	for _, w := range []struct {
		name string
		dst  *model.BaseRef
	}{{b.Pulse, &out.Pulse}, {b.Beam, &out.Beam}, {b.Special, &out.Special}} {
		if *w.dst, err = l.baseRef(w.name); err != nil {
			return model.BaseObject{}, err
		}
	}
	for _, list := range []struct {
		name string
		src  []actionYAML
		dst  *model.ActionRange
	}{
		{"on_create", b.OnCreate, &out.OnCreate},
		{"on_destroy", b.OnDestroy, &out.OnDestroy},
		{"on_expire", b.OnExpire, &out.OnExpire},
		{"on_collide", b.OnCollide, &out.OnCollide},
		{"on_activate", b.OnActivate, &out.OnActivate},
	} {
		if *list.dst, err = l.actions(list.src); err != nil {
			return model.BaseObject{}, fmt.Errorf("%s: %w", list.name, err)
		}
	}
	return out, nil
}

func (l *loader) condition(c conditionYAML) (model.Condition, error) {
	pred, err := l.predicate(c.When)
	if err != nil {
		return model.Condition{}, err
	}
	subject, err := l.initialRef(c.Subject)
	if err != nil {
		return model.Condition{}, err
	}
	direct, err := l.initialRef(c.Direct)
	if err != nil {
		return model.Condition{}, err
	}
	actions, err := l.actions(c.Actions)
	if err != nil {
		return model.Condition{}, err
	}
	return model.Condition{
		Name:       c.Name,
		Predicate:  pred,
		Subject:    subject,
		Direct:     direct,
		Actions:    actions,
		Persistent: c.Persistent,
		Disabled:   c.Disabled,
	}, nil
}

func (l *loader) predicate(p predicateYAML) (model.Predicate, error) {
	op, err := model.ParseOp(p.Op)
	if err != nil {
		return nil, err
	}
	player, err := model.ParsePlayerName(p.Player)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(p.Kind) {
	case "score":
		return model.Score{Player: player, Which: p.Which, Op: op, Value: p.Value}, nil
	case "owner":
		return model.Owner{Player: player}, nil
	case "destroyed":
		ref, err := l.initialRef(p.Initial)
		if err != nil || ref == model.NoInitial {
			return nil, fmt.Errorf("destroyed: initial %q: unknown", p.Initial)
		}
		return model.Destroyed{Initial: ref}, nil
	case "time":
		return model.Time{Op: op, Units: p.Units}, nil
	case "health":
		return model.Health{Op: op, Percent: p.Percent}, nil
	case "ships":
		return model.Ships{Player: player, Op: op, Value: p.Value}, nil
	case "cash":
		return model.Cash{Player: player, Op: op, Value: p.Value}, nil
	case "distance":
		return model.Distance{Op: op, Squared: p.Distance * p.Distance}, nil
	case "identity":
		return model.Identity{}, nil
	case "control":
		return model.Control{}, nil
	case "target":
		return model.Target{}, nil
	case "speed":
		return model.Speed{Op: op, Value: model.FixedFromFloat(p.Speed)}, nil
	case "message":
		return model.Message{ID: p.Message}, nil
	default:
		return nil, fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
}

// actions appends list to the action table and returns its range.
func (l *loader) actions(list []actionYAML) (model.ActionRange, error) {
	if len(list) == 0 {
		return model.ActionRange{}, nil
	}
	first := len(l.sc.Actions)
	for i, a := range list {
		act, err := l.action(a)
		if err != nil {
			return model.ActionRange{}, fmt.Errorf("action %d (%s): %w", i, a.Verb, err)
		}
		l.sc.Actions = append(l.sc.Actions, act)
	}
	return model.ActionRange{First: first, Count: len(list)}, nil
}

func (l *loader) action(a actionYAML) (model.Action, error) {
	inclusive, err := model.ParseAttributes(a.Inclusive)
	if err != nil {
		return model.Action{}, err
	}
	out := model.Action{
		Reflexive:       a.Reflexive,
		Delay:           a.Delay,
		InclusiveFilter: uint32(inclusive),
	}
	if a.LevelKeyTag != nil {
		out.ExclusiveFilter = model.LevelKeyTagFilter
		out.LevelKeyTag = *a.LevelKeyTag
	}
	switch strings.ToLower(a.OwnerFilter) {
	case "", "any":
		out.OwnerFilter = model.OwnerAny
	case "same":
		out.OwnerFilter = model.OwnerSame
	case "different":
		out.OwnerFilter = model.OwnerDifferent
	default:
		return model.Action{}, fmt.Errorf("unknown owner filter %q", a.OwnerFilter)
	}
	if out.SubjectOverride, err = l.initialRef(a.Subject); err != nil {
		return model.Action{}, err
	}
	if out.DirectOverride, err = l.initialRef(a.Direct); err != nil {
		return model.Action{}, err
	}
	out.Verb, err = l.verb(a)
	return out, err
}

func (l *loader) verb(a actionYAML) (model.Verb, error) {
	kind, ok := model.VerbKindByName(a.Verb)
	if !ok {
		return nil, fmt.Errorf("unknown verb %q", a.Verb)
	}
	player, err := model.ParsePlayerName(a.Player)
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.VerbNoAction:
		return model.NoAction{}, nil
	case model.VerbCreateObject:
		base, err := l.baseRef(a.Base)
		if err != nil || base == model.NoBase {
			return nil, fmt.Errorf("base %q: unknown", a.Base)
		}
		count := a.Count
		if count == 0 && a.CountRange == 0 {
			count = 1
		}
		return model.CreateObject{
			Base:               base,
			CountMinimum:       count,
			CountRange:         a.CountRange,
			RelativeVelocity:   a.RelativeVelocity,
			RelativeDirection:  a.RelativeDirection,
			RandomDistance:     a.RandomDistance,
			InheritDestination: a.InheritDestination,
		}, nil
	case model.VerbPlaySound:
		return model.PlaySound{Sound: a.Sound, Range: a.Range, Volume: a.Volume, Absolute: a.Absolute}, nil
	case model.VerbMakeSparks:
		return model.MakeSparks{Count: a.Count, Speed: int32(a.Speed), Hue: a.Hue}, nil
	case model.VerbDie:
		switch strings.ToLower(a.How) {
		case "", "quietly":
			return model.Die{How: model.DieQuietly}, nil
		case "expire":
			return model.Die{How: model.DieExpire}, nil
		case "destroy":
			return model.Die{How: model.DieDestroy}, nil
		default:
			return nil, fmt.Errorf("unknown die kind %q", a.How)
		}
	case model.VerbNilTarget:
		return model.NilTarget{}, nil
	case model.VerbAlterHealth:
		return model.AlterHealth{Amount: int32(a.Amount)}, nil
	case model.VerbAlterEnergy:
		return model.AlterEnergy{Amount: int32(a.Amount)}, nil
	case model.VerbAlterHidden:
		first, ok := l.initials[a.First]
		if !ok {
			return nil, fmt.Errorf("initial %q: unknown", a.First)
		}
		return model.AlterHidden{First: first, Count: countOrOne(a.Count)}, nil
	case model.VerbAlterCloak:
		return model.AlterCloak{}, nil
	case model.VerbAlterVelocity:
		return model.AlterVelocity{Speed: model.FixedFromFloat(a.Speed), Relative: a.Relative}, nil
	case model.VerbAlterOwner:
		return model.AlterOwner{Player: player, Relative: a.Relative}, nil
	case model.VerbArmConditions:
		first, ok := l.conditions[a.First]
		if !ok {
			return nil, fmt.Errorf("condition %q: unknown", a.First)
		}
		armed := true
		if a.Armed != nil {
			armed = *a.Armed
		}
		return model.ArmConditions{First: first, Count: countOrOne(a.Count), Armed: armed}, nil
	case model.VerbAlterCash:
		return model.AlterCash{Amount: a.Amount, Player: player, Relative: a.Relative}, nil
	case model.VerbAlterAge:
		return model.AlterAge{Minimum: a.Minimum, Range: a.Range, Relative: a.Relative}, nil
	case model.VerbAlterLocation:
		return model.AlterLocation{Range: a.Range, Relative: a.Relative}, nil
	case model.VerbAlterWeapon:
		slot, err := model.ParseWeaponSlot(a.Slot)
		if err != nil {
			return nil, err
		}
		base, err := l.baseRef(a.Base)
		if err != nil {
			return nil, err
		}
		return model.AlterWeapon{Slot: slot, Base: base}, nil
	case model.VerbChangeScore:
		return model.ChangeScore{Player: player, Which: a.Which, Amount: a.Amount}, nil
	case model.VerbDeclareWinner:
		return model.DeclareWinner{Player: player, NextLevel: a.NextLevel, Text: a.Text}, nil
	case model.VerbDisplayMessage:
		return model.DisplayMessage{ID: a.ID, Pages: a.Pages}, nil
	case model.VerbSetDestination:
		return model.SetDestination{}, nil
	case model.VerbActivateWeapon:
		slot, err := model.ParseWeaponSlot(a.Slot)
		if err != nil {
			return nil, err
		}
		return model.ActivateWeapon{Slot: slot}, nil
	case model.VerbColorFlash:
		return model.ColorFlash{Length: a.Length, Color: a.Color, Shade: a.Shade}, nil
	case model.VerbEnableKeys, model.VerbDisableKeys:
		mask, err := input.ParseKeys(a.Keys)
		if err != nil {
			return nil, err
		}
		if kind == model.VerbEnableKeys {
			return model.EnableKeys{Mask: uint32(mask)}, nil
		}
		return model.DisableKeys{Mask: uint32(mask)}, nil
	default:
		return nil, fmt.Errorf("verb %q has no loader", a.Verb)
	}
}

func (l *loader) baseRef(name string) (model.BaseRef, error) {
	if name == "" {
		return model.NoBase, nil
	}
	i, ok := l.bases[name]
	if !ok {
		return model.NoBase, fmt.Errorf("base %q: unknown", name)
	}
	return model.Base(i), nil
}

func (l *loader) initialRef(name string) (model.InitialRef, error) {
	if name == "" {
		return model.NoInitial, nil
	}
	i, ok := l.initials[name]
	if !ok {
		return model.NoInitial, fmt.Errorf("initial %q: unknown", name)
	}
	return model.Initial(i), nil
}

func countOrOne(n int32) int {
	if n <= 0 {
		return 1
	}
	return int(n)
}
