package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/config"
)

// Status of one stage after a Repro or Status pass.
type Status string

const (
	StatusRun      Status = "run"      // runner executed
	StatusCached   Status = "cached"   // up to date, outputs in place
	StatusRestored Status = "restored" // up to date, outputs checked out of the cache
	StatusStale    Status = "stale"    // would run (Status pass only)
	StatusSkipped  Status = "skipped"  // outside the requested targets
)

// Outcome reports what happened to one stage.
type Outcome struct {
	Stage       string        `json:"stage"`
	Status      Status        `json:"status"`
	Fingerprint string        `json:"fingerprint"`
	Elapsed     time.Duration `json:"elapsed_ns,omitempty"`
}

// CacheDir returns the object cache location under root.
func CacheDir(root string) string {
	return filepath.Join(root, config.StateDir, "cache")
}

// Executor drives a pipeline against a workspace.
type Executor struct {
	Root    string
	Config  *config.Config
	Store   *artifact.Store
	Runners Registry
	Logger  zerolog.Logger
	Force   bool
}

// NewExecutor wires an executor with the built-in runners and the workspace
// object cache.
func NewExecutor(root string, cfg *config.Config, logger zerolog.Logger) *Executor {
	return &Executor{
		Root:    root,
		Config:  cfg,
		Store:   artifact.NewStore(CacheDir(root)),
		Runners: BuiltinRunners(),
		Logger:  logger,
	}
}

// fingerprintInput is the canonical payload hashed into a stage fingerprint.
// JSON marshaling sorts map keys, so equal inputs hash equally.
type fingerprintInput struct {
	Stage    string            `json:"stage"`
	Runner   string            `json:"runner"`
	Params   map[string]any    `json:"params,omitempty"`
	Deps     map[string]string `json:"deps"`
	Upstream map[string]string `json:"upstream"`
}

// hashPath digests a dependency. Directories hash to a digest over their
// sorted file names and contents, so adding, removing, or editing any file
// changes the result.
func hashPath(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return artifact.HashFile(path)
	}

	h := sha256.New()
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		digest, err := artifact.HashFile(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%s\x00", filepath.ToSlash(rel), digest)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("cannot hash directory %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// abs resolves a workspace-relative path.
func (e *Executor) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.Root, path)
}

// fingerprint computes the content fingerprint of a stage given the
// fingerprints of the stages it consumes outputs from.
func (e *Executor) fingerprint(name string, st *Stage, upstream map[string]string) (string, error) {
	deps := make(map[string]string, len(st.Deps))
	for _, dep := range st.Deps {
		digest, err := hashPath(e.abs(dep))
		if err != nil {
			return "", fmt.Errorf("stage %s: missing dependency %s: %w", name, dep, err)
		}
		deps[dep] = digest
	}
	payload, err := json.Marshal(fingerprintInput{
		Stage:    name,
		Runner:   st.Runner,
		Params:   st.Params,
		Deps:     deps,
		Upstream: upstream,
	})
	if err != nil {
		return "", err
	}
	return artifact.HashBytes(payload), nil
}

// upstreamFingerprints collects the fingerprints of the stages name depends
// on, all of which have been computed earlier in topological order.
func (e *Executor) upstreamFingerprints(p *Pipeline, name string, fps map[string]string) (map[string]string, error) {
	producers, err := p.producers()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, up := range p.upstreamOf(name, producers) {
		fp, ok := fps[up]
		if !ok {
			return nil, fmt.Errorf("stage %s: upstream %s has no fingerprint", name, up)
		}
		out[up] = fp
	}
	return out, nil
}

// outsIntact reports whether every recorded output of a stage is present in
// the workspace with its recorded digest. Missing or drifted files are
// checked out of the object cache when possible; restored reports whether
// that happened.
func (e *Executor) outsIntact(prev StageState, outs []string) (intact, restored bool) {
	for _, out := range outs {
		want, ok := prev.Outs[out]
		if !ok {
			return false, false
		}
		path := e.abs(out)
		if got, err := artifact.HashFile(path); err == nil && got == want {
			continue
		}
		if !e.Store.Has(want) {
			return false, false
		}
		if err := e.Store.Checkout(want, path); err != nil {
			return false, false
		}
		restored = true
	}
	return true, restored
}

// recordOuts hashes the declared outputs of a finished stage and copies them
// into the object cache.
func (e *Executor) recordOuts(name string, outs []string) (map[string]string, error) {
	digests := make(map[string]string, len(outs))
	for _, out := range outs {
		digest, err := e.Store.Add(e.abs(out))
		if err != nil {
			return nil, fmt.Errorf("stage %s: output %s: %w", name, out, err)
		}
		digests[out] = digest
	}
	return digests, nil
}

// Repro runs the pipeline: every selected stage in dependency order, skipping
// stages whose fingerprint and outputs are intact. targets restricts the run
// to those stages and their ancestors; nil runs everything.
func (e *Executor) Repro(ctx context.Context, p *Pipeline, targets []string) ([]Outcome, error) {
	order, err := p.Sort()
	if err != nil {
		return nil, err
	}
	selected := map[string]bool{}
	if len(targets) > 0 {
		if selected, err = p.Ancestors(targets); err != nil {
			return nil, err
		}
	} else {
		for _, name := range order {
			selected[name] = true
		}
	}

	release, err := AcquireLock(e.Root, 5*time.Second)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := LoadState(e.Root)
	if err != nil {
		return nil, err
	}

	fps := make(map[string]string, len(order))
	outcomes := make([]Outcome, 0, len(order))
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if !selected[name] {
			outcomes = append(outcomes, Outcome{Stage: name, Status: StatusSkipped})
			continue
		}
		st := e.Stage(p, name)
		upstream, err := e.upstreamFingerprints(p, name, fps)
		if err != nil {
			return outcomes, err
		}
		fp, err := e.fingerprint(name, st, upstream)
		if err != nil {
			return outcomes, err
		}
		fps[name] = fp

		if prev, ok := state.Stages[name]; ok && !e.Force && prev.Fingerprint == fp {
			if intact, restored := e.outsIntact(prev, st.Outs); intact {
				status := StatusCached
				if restored {
					status = StatusRestored
				}
				e.Logger.Info().Str("stage", name).Str("status", string(status)).Msg("stage up to date")
				outcomes = append(outcomes, Outcome{Stage: name, Status: status, Fingerprint: fp})
				continue
			}
		}

		runner, ok := e.Runners[st.Runner]
		if !ok {
			return outcomes, fmt.Errorf("stage %s: unknown runner %q", name, st.Runner)
		}
		e.Logger.Info().Str("stage", name).Str("runner", st.Runner).Msg("running stage")
		start := time.Now()
		rc := &RunContext{Root: e.Root, Config: e.Config, Name: name, Stage: st, Logger: e.Logger.With().Str("stage", name).Logger()}
		if err := runner(ctx, rc); err != nil {
			return outcomes, fmt.Errorf("stage %s failed: %w", name, err)
		}
		elapsed := time.Since(start)

		outDigests, err := e.recordOuts(name, st.Outs)
		if err != nil {
			return outcomes, err
		}
		state.Stages[name] = StageState{Fingerprint: fp, Outs: outDigests, CompletedAt: time.Now().UTC()}
		if err := SaveState(e.Root, state); err != nil {
			return outcomes, err
		}
		e.Logger.Info().Str("stage", name).Dur("took", elapsed).Msg("stage done")
		outcomes = append(outcomes, Outcome{Stage: name, Status: StatusRun, Fingerprint: fp, Elapsed: elapsed})
	}
	return outcomes, nil
}

// Stage returns the named stage; the name is assumed present.
func (e *Executor) Stage(p *Pipeline, name string) *Stage { return p.Stages[name] }

// Status reports, without running anything, which stages are up to date. A
// stage whose dependencies cannot be hashed, whose fingerprint drifted, or
// whose upstream is stale reports as stale.
func (e *Executor) Status(p *Pipeline) ([]Outcome, error) {
	order, err := p.Sort()
	if err != nil {
		return nil, err
	}
	state, err := LoadState(e.Root)
	if err != nil {
		return nil, err
	}

	fps := make(map[string]string, len(order))
	stale := make(map[string]bool, len(order))
	outcomes := make([]Outcome, 0, len(order))
	for _, name := range order {
		st := e.Stage(p, name)
		upstream, err := e.upstreamFingerprints(p, name, fps)
		if err != nil {
			return nil, err
		}
		for up := range upstream {
			if stale[up] {
				stale[name] = true
			}
		}

		fp, fpErr := e.fingerprint(name, st, upstream)
		fps[name] = fp
		prev, ran := state.Stages[name]
		fresh := fpErr == nil && ran && prev.Fingerprint == fp && !stale[name]
		if fresh && !e.outsPresent(prev, st.Outs) {
			fresh = false
		}
		if !fresh {
			stale[name] = true
			outcomes = append(outcomes, Outcome{Stage: name, Status: StatusStale, Fingerprint: fp})
			continue
		}
		outcomes = append(outcomes, Outcome{Stage: name, Status: StatusCached, Fingerprint: fp})
	}
	return outcomes, nil
}

// GC removes cache objects no recorded stage output references and returns
// how many were dropped.
func (e *Executor) GC() (int, error) {
	state, err := LoadState(e.Root)
	if err != nil {
		return 0, err
	}
	live := make(map[string]bool)
	for _, st := range state.Stages {
		for _, digest := range st.Outs {
			live[digest] = true
		}
	}
	objects, err := e.Store.List()
	if err != nil {
		return 0, err
	}
	sort.Strings(objects)

	var dropped int
	for _, digest := range objects {
		if live[digest] {
			continue
		}
		if err := e.Store.Remove(digest); err != nil {
			return dropped, err
		}
		dropped++
	}
	return dropped, nil
}

// outsPresent is the read-only variant of outsIntact used by Status; it
// never touches the workspace.
func (e *Executor) outsPresent(prev StageState, outs []string) bool {
	for _, out := range outs {
		want, ok := prev.Outs[out]
		if !ok {
			return false
		}
		got, err := artifact.HashFile(e.abs(out))
		if err != nil || got != want {
			// Restorable from the cache still counts as present.
			if !e.Store.Has(want) {
				return false
			}
		}
	}
	return true
}

// decodeParams re-marshals a stage's free-form params into a typed struct.
func decodeParams(st *Stage, v any) error {
	if len(st.Params) == 0 {
		return nil
	}
	data, err := json.Marshal(st.Params)
	if err != nil {
		return fmt.Errorf("cannot encode stage params: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid stage params: %w", err)
	}
	return nil
}
