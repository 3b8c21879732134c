package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/internal/sim/session"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
)

const skirmishPath = "../../scenarios/skirmish.yaml"

// writeTestConfig points storage at a temp database and keeps logs quiet.
func writeTestConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	if _, err := os.Stat(skirmishPath); err != nil {
		t.Skipf("%s not found: %v", skirmishPath, err)
	}
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "fleetsim.db")
	configPath = filepath.Join(dir, "fleetsim.yaml")
	body := "scenario: " + skirmishPath + "\nlog:\n  level: error\nstorage:\n  path: " + dbPath + "\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, dbPath
}

func testRun(t *testing.T, opts runOptions) *runSummary {
	t.Helper()
	if opts.Frame == 0 {
		opts.Frame = 16 * time.Millisecond
	}
	sum, err := run(context.Background(), opts, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return sum
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	opts := runOptions{ConfigPath: cfg, Duration: 20 * time.Second, Seed: 42}

	first := testRun(t, opts)
	second := testRun(t, opts)

	if first.Decisions == 0 || first.Units == 0 {
		t.Fatalf("session did not advance: %+v", first)
	}
	if first.Digest != second.Digest || first.Units != second.Units {
		t.Fatalf("runs diverged: %+v vs %+v", first, second)
	}
	if first.SessionID == second.SessionID {
		t.Fatalf("runs shared session id %q", first.SessionID)
	}
}

func TestRunStoresReplayAndPlaysItBack(t *testing.T) {
	cfg, _ := writeTestConfig(t)

	live := testRun(t, runOptions{ConfigPath: cfg, Duration: 10 * time.Second, Seed: 7})
	if live.ReplayID == "" {
		t.Fatalf("live run stored no replay")
	}

	a := testRun(t, runOptions{ConfigPath: cfg, ReplayID: live.ReplayID})
	b := testRun(t, runOptions{ConfigPath: cfg, ReplayID: live.ReplayID})
	if a.Digest != b.Digest {
		t.Fatalf("replays diverged: %016x vs %016x", a.Digest, b.Digest)
	}
	switch live.Outcome {
	case session.OutcomeNone:
		// The live run hit its time limit, so playback runs out of input.
		if a.Outcome != session.OutcomeQuit || a.Decisions != live.Decisions+1 {
			t.Fatalf("replay = %s after %d decisions, want quit after %d", a.Outcome, a.Decisions, live.Decisions+1)
		}
	default:
		if a.Outcome != live.Outcome || a.Decisions != live.Decisions || a.Digest != live.Digest {
			t.Fatalf("replay %+v does not reproduce live run %+v", a, live)
		}
	}

	var out bytes.Buffer
	if err := listResults(context.Background(), cfg, 5, &out); err != nil {
		t.Fatalf("listResults: %v", err)
	}
	if lines := strings.Count(out.String(), "\n"); lines != 3 {
		t.Fatalf("listResults printed %d lines, want 3:\n%s", lines, out.String())
	}
}

func TestRunFastMotionCoversMoreUnits(t *testing.T) {
	cfg, _ := writeTestConfig(t)

	normal := testRun(t, runOptions{ConfigPath: cfg, Duration: 2 * time.Second, Seed: 3})
	fast := testRun(t, runOptions{ConfigPath: cfg, Duration: 2 * time.Second, Seed: 3, Fast: true})
	if fast.Outcome == session.OutcomeNone && fast.Units <= normal.Units {
		t.Fatalf("fast motion covered %d units, normal %d", fast.Units, normal.Units)
	}
}

func TestRunRejectsReplayWithoutStorage(t *testing.T) {
	_, err := run(context.Background(), runOptions{Scenario: skirmishPath, ReplayID: "x", Frame: time.Millisecond}, io.Discard)
	if err == nil {
		t.Fatalf("expected an error for replay playback without storage")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &runSummary{Scenario: "skirmish", Outcome: session.OutcomeWin, Units: 30, Decisions: 10, Digest: 0xabc, ReplayID: "r1"})
	want := "scenario=skirmish outcome=win units=30 decisions=10 digest=0000000000000abc replay=r1\n"
	if buf.String() != want {
		t.Fatalf("printSummary = %q, want %q", buf.String(), want)
	}
}

func TestPatrolKeysIsAFunctionOfTheCycle(t *testing.T) {
	a, b := patrolKeys(), patrolKeys()
	for i := 0; i < 40; i++ {
		if ka, kb := a.Keys(), b.Keys(); ka != kb {
			t.Fatalf("cycle %d: %b != %b", i+1, ka, kb)
		}
	}
}

// pauseOnce asks for a pause on its first call only.
type pauseOnce struct{ calls int }

func (h *pauseOnce) ApplyKeys(*action.Interpreter, input.KeyBits, int64) bool {
	h.calls++
	return h.calls == 1
}

func TestStepFrameResumesAfterHelmPause(t *testing.T) {
	sc := &model.Scenario{
		Name:        "drill",
		Players:     []model.PlayerSpec{{Name: "blue", Human: true}},
		BaseObjects: []model.BaseObject{{Name: "cruiser", Attributes: model.AttrIsShip}},
		Initials:    []model.InitialObject{{Base: model.Base(0), Flagship: true}},
	}
	cfg := session.DefaultConfig()
	cfg.UnitDuration = time.Millisecond
	cfg.DecideEveryCycles = 1
	sess, err := session.New(kb.NewCatalog(sc), nil,
		session.WithConfig(cfg), session.WithSeed(1), session.WithHelm(&pauseOnce{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t0 := time.Unix(100, 0)
	stepFrame(sess, t0)
	if st := stepFrame(sess, t0.Add(5*time.Millisecond)); st.State != session.StatePaused || st.Units != 1 {
		t.Fatalf("pause frame status = %+v, want paused after 1 unit", st)
	}
	if st := stepFrame(sess, t0.Add(10*time.Millisecond)); st.Units != 0 || st.State != session.StatePlaying {
		t.Fatalf("frame after pause = %+v, want a dropped frame while playing", st)
	}
	if st := stepFrame(sess, t0.Add(14*time.Millisecond)); st.Units != 4 || st.State != session.StatePlaying {
		t.Fatalf("play did not pick up again: %+v", st)
	}
}
