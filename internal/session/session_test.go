package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/probectl/internal/hwconfig"
	"github.com/danmuck/probectl/internal/probe"
	"github.com/danmuck/probectl/internal/testutil/testlog"
	"github.com/danmuck/probectl/internal/tools"
)

const testBedConfig = `[dev-board-01]
HwModel = nRF52840_OpenThread_Device
InterfaceSerialNumber = 683214573
DutSerial = FCA12B7E90D1

[dev-board-02]
HwModel = nRF52840_OpenThread_Device
InterfaceSerialNumber = 683921004
DutSerial = FCA12B7E90D2

[sniffer-01]
HwModel = NordicSniffer
InterfaceSerialNumber = 683100200
`

// scriptedRunner answers each command from per-prefix response and failure
// tables and records every invocation.
type scriptedRunner struct {
	calls     [][]string
	responses map[string]string
	failures  map[string]error
}

func (r *scriptedRunner) Run(name string, args ...string) (tools.Result, error) {
	return r.RunIn("", name, args...)
}

func (r *scriptedRunner) RunIn(dir, name string, args ...string) (tools.Result, error) {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	joined := strings.Join(call, " ")
	for prefix, err := range r.failures {
		if strings.HasPrefix(joined, prefix) {
			return tools.Result{ExitCode: 1}, err
		}
	}
	for prefix, out := range r.responses {
		if strings.HasPrefix(joined, prefix) {
			return tools.Result{Stdout: []byte(out)}, nil
		}
	}
	return tools.Result{}, nil
}

func (r *scriptedRunner) RunStreaming(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *scriptedRunner) callsTo(name string) [][]string {
	var out [][]string
	for _, call := range r.calls {
		if call[0] == name {
			out = append(out, call)
		}
	}
	return out
}

type fakeFlasher struct {
	flashed []string
	err     error
}

func (f *fakeFlasher) Execute(action probe.Action, hexPath, serial string) error {
	if action != probe.ActionFlash {
		return errors.New("unexpected action " + string(action))
	}
	f.flashed = append(f.flashed, serial)
	return f.err
}

type fakeBuilder struct {
	hexPath string
	builds  int
	err     error
}

func (b *fakeBuilder) Build() (string, error) {
	b.builds++
	return b.hexPath, b.err
}

func testBed(t *testing.T) *hwconfig.Resource {
	t.Helper()
	res, err := hwconfig.Parse([]byte(testBedConfig))
	if err != nil {
		t.Fatalf("parse test bed: %v", err)
	}
	return res
}

func fixedNow() time.Time {
	return time.Date(2020, 6, 15, 14, 30, 0, 0, time.UTC)
}

func newOrchestrator(runner tools.CommandRunner, builder *fakeBuilder, flasher *fakeFlasher, hw *hwconfig.Resource) *Orchestrator {
	return &Orchestrator{
		Components: []Component{
			{Name: "openthread", Kind: KindFirmware, RepoPath: "/home/pi/openthread"},
			{Name: "wpantund", Kind: KindDriver, RepoPath: "/home/pi/wpantund"},
		},
		Hardware:    hw,
		Builder:     builder,
		Flasher:     flasher,
		Runner:      runner,
		HwConfig:    "/opt/openthread_test/hwconfig.ini",
		ResultsDir:  "/opt/openthread_test/results",
		TestPattern: "ot_test_*.py",
		Now:         fixedNow,
	}
}

func TestUpToDateComponentsDoNothing(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{responses: map[string]string{
		"git": "Already up to date.\n",
	}}
	builder := &fakeBuilder{hexPath: "/opt/openthread_test/images/ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if builder.builds != 0 {
		t.Fatalf("expected zero builds, got %d", builder.builds)
	}
	if len(flasher.flashed) != 0 {
		t.Fatalf("expected zero flashes, got %v", flasher.flashed)
	}
	if pulls := runner.callsTo("git"); len(pulls) != 2 {
		t.Fatalf("expected one pull per component, got %v", pulls)
	}
	if runs := runner.callsTo(DefaultPythonExe); len(runs) != 0 {
		t.Fatalf("expected zero test-runner invocations, got %v", runs)
	}
}

func TestOldStyleUpToDateMarkerRecognized(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{responses: map[string]string{
		"git": "Already up-to-date.\n",
	}}
	builder := &fakeBuilder{hexPath: "ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if builder.builds != 0 || len(flasher.flashed) != 0 {
		t.Fatalf("pre-2.15 marker not treated as up to date")
	}
}

func TestChangedFirmwareFlashesEveryBoardThenRunsTests(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{responses: map[string]string{
		"git -C /home/pi/openthread": "Updating 1a2b3c..4d5e6f\nFast-forward\n",
		"git -C /home/pi/wpantund":   "Already up to date.\n",
	}}
	builder := &fakeBuilder{hexPath: "/opt/openthread_test/images/ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if builder.builds != 1 {
		t.Fatalf("expected one build, got %d", builder.builds)
	}
	if len(flasher.flashed) != 2 || flasher.flashed[0] != "683214573" || flasher.flashed[1] != "683921004" {
		t.Fatalf("expected both dev boards flashed in file order, got %v", flasher.flashed)
	}

	runs := runner.callsTo(DefaultPythonExe)
	if len(runs) != 1 {
		t.Fatalf("expected exactly one test-runner invocation, got %v", runs)
	}
	argv := runs[0]
	want := []string{
		DefaultPythonExe,
		DefaultTestRunner,
		"-v2",
		"-c", "/opt/openthread_test/hwconfig.ini",
		"-d", "/opt/openthread_test/results/silk_run_06-15/test_run_on_06-15-14:30",
		"ot_test_*.py",
	}
	if len(argv) != len(want) {
		t.Fatalf("test-runner argv: want %v got %v", want, argv)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("test-runner argv[%d]: want %q got %q", i, want[i], argv[i])
		}
	}
}

func TestChangedDriverRunsTestsWithoutFlashing(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{responses: map[string]string{
		"git -C /home/pi/openthread": "Already up to date.\n",
		"git -C /home/pi/wpantund":   "Updating aa11..bb22\n",
	}}
	builder := &fakeBuilder{hexPath: "ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if builder.builds != 0 || len(flasher.flashed) != 0 {
		t.Fatalf("driver change must not rebuild or reflash firmware")
	}
	if runs := runner.callsTo(DefaultPythonExe); len(runs) != 1 {
		t.Fatalf("expected one test-runner invocation, got %v", runs)
	}
}

func TestFlashFailuresDoNotStopTheSession(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{responses: map[string]string{
		"git -C /home/pi/openthread": "Fast-forward\n",
		"git -C /home/pi/wpantund":   "Already up to date.\n",
	}}
	builder := &fakeBuilder{hexPath: "ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{err: errors.New("cannot connect to target")}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("flash failure must not fail the session: %v", err)
	}

	if len(flasher.flashed) != 2 {
		t.Fatalf("every board must still be attempted, got %v", flasher.flashed)
	}
	if runs := runner.callsTo(DefaultPythonExe); len(runs) != 1 {
		t.Fatalf("tests must run regardless of flash failures, got %v", runs)
	}
}

func TestPullFailureTreatedAsChanged(t *testing.T) {
	testlog.Start(t)

	runner := &scriptedRunner{
		responses: map[string]string{
			"git -C /home/pi/wpantund": "Already up to date.\n",
		},
		failures: map[string]error{
			"git -C /home/pi/openthread": errors.New("exit status 1"),
		},
	}
	builder := &fakeBuilder{hexPath: "ot-ncp-ftd.hex"}
	flasher := &fakeFlasher{}

	orch := newOrchestrator(runner, builder, flasher, testBed(t))
	if err := orch.Run(); err != nil {
		t.Fatalf("a failed pull must not abort the pass: %v", err)
	}

	// Only the marker means unchanged, so the failed component rebuilds.
	if builder.builds != 1 || len(flasher.flashed) != 2 {
		t.Fatalf("failed pull must count as changed: builds=%d flashed=%v", builder.builds, flasher.flashed)
	}
	if pulls := runner.callsTo("git"); len(pulls) != 2 {
		t.Fatalf("both components must still be checked, got %v", pulls)
	}
	if runs := runner.callsTo(DefaultPythonExe); len(runs) != 1 {
		t.Fatalf("expected one test-runner invocation, got %v", runs)
	}
}

func TestOTNSServerTravelsThroughEnv(t *testing.T) {
	testlog.Start(t)

	orch := newOrchestrator(&scriptedRunner{}, &fakeBuilder{}, &fakeFlasher{}, testBed(t))
	orch.OTNSServer = "localhost:9000"

	name, args := orch.testCommand("/tmp/results")
	if name != "env" {
		t.Fatalf("expected env(1) wrapper, got %q", name)
	}
	if args[0] != "OTNS_SERVER=localhost:9000" || args[1] != DefaultPythonExe {
		t.Fatalf("unexpected env argv prefix: %v", args[:2])
	}
}

func TestRunRequiresComponents(t *testing.T) {
	testlog.Start(t)

	orch := &Orchestrator{Runner: &scriptedRunner{}}
	if err := orch.Run(); !errors.Is(err, ErrNoComponents) {
		t.Fatalf("expected ErrNoComponents, got %v", err)
	}
}

func TestClusterDispatchesToEveryHost(t *testing.T) {
	testlog.Start(t)

	runners := map[string]*scriptedRunner{}
	cluster := &Cluster{
		Hosts: []string{"hub-01.local", "hub-02.local"},
		RunnerFor: func(host string) tools.CommandRunner {
			r := &scriptedRunner{}
			runners[host] = r
			return r
		},
		Args: []string{"-config", "/opt/openthread_test/session.toml"},
	}

	if err := cluster.Run(); err != nil {
		t.Fatalf("cluster run: %v", err)
	}
	for _, host := range cluster.Hosts {
		r, ok := runners[host]
		if !ok || len(r.calls) != 1 {
			t.Fatalf("host %s not dispatched exactly once", host)
		}
		if r.calls[0][0] != DefaultRemoteCommand {
			t.Fatalf("host %s ran %q, want %q", host, r.calls[0][0], DefaultRemoteCommand)
		}
	}
}
