package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rg "github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/framefile"
	"github.com/gogpu/rendergraph/internal/batch"
	"github.com/gogpu/rendergraph/recording"
)

const backendAuto = "auto"

// planOpts holds the command-line flags for the plan command.
type planOpts struct {
	barriers  string // barrier policy override: union or precise
	noReorder bool   // keep non-scope nodes in program order
	backend   string // backend name, or auto
	quiet     bool   // print statistics only
	jobs      int    // concurrent frames; 0 means one per CPU
}

func (c *CLI) planCommand() *cobra.Command {
	opts := planOpts{backend: backend.BackendRecording, jobs: 1}

	cmd := &cobra.Command{
		Use:   "plan [frame...]",
		Short: "Schedule frames and print the command stream",
		Long: `Schedule frame descriptions and print the executor calls in submission order,
including the synthesized barriers, layout transitions and rebinds.

Several frames are scheduled concurrently with --jobs and reported in the
order given. With --backend native the frames are submitted to a GPU
instead and only statistics are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.barriers, "barriers", "", "barrier policy: union, precise (default: from frame)")
	cmd.Flags().BoolVar(&opts.noReorder, "no-reorder", false, "do not hoist nodes in front of rendering scopes")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", opts.backend,
		fmt.Sprintf("backend: %s, or %s", strings.Join(backend.Available(), ", "), backendAuto))
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print statistics only")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "frames scheduled concurrently (0: one per CPU)")

	return cmd
}

// planResult is one scheduled frame, ready to print.
type planResult struct {
	frame   *framefile.Frame
	backend string
	cmds    []recording.Command // nil unless recorded
	stats   rg.Stats
}

func (c *CLI) runPlan(ctx context.Context, paths []string, opts *planOpts) error {
	results := make([]planResult, len(paths))
	jobs := make([]batch.Job, len(paths))
	for i, path := range paths {
		jobs[i] = func(ctx context.Context) (err error) {
			results[i], err = c.plan(ctx, path, opts)
			return err
		}
	}

	prog := newProgress(c.Logger)
	pool := batch.NewPool(min(opts.jobs, len(paths)))
	errs := pool.Run(ctx, jobs)
	pool.Close()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if len(paths) > 1 {
		prog.done(fmt.Sprintf("Scheduled %d frames", len(paths)))
	}

	for _, r := range results {
		c.printTitle("%s (%s)", r.frame.Name, r.backend)
		if !opts.quiet {
			c.printCommands(r.cmds)
		}
		c.printStats(r.stats)
		c.printSuccess("frame %s scheduled", r.frame.Name)
	}
	return nil
}

// plan loads, schedules and executes one frame on its own backend instance.
func (c *CLI) plan(ctx context.Context, path string, opts *planOpts) (planResult, error) {
	f, g, err := c.loadGraph(path, opts.barriers, opts.noReorder)
	if err != nil {
		return planResult{}, err
	}

	be, err := openBackend(opts.backend)
	if err != nil {
		return planResult{}, err
	}
	defer be.Close()
	c.Logger.Debug("backend ready", "backend", be.Name(), "frame", f.Name)

	if err := be.Provision(f.Resources()); err != nil {
		return planResult{}, fmt.Errorf("provision %s: %w", f.Name, err)
	}

	prog := newProgress(c.Logger)
	stats, err := submit(g, be.Executor())
	if err != nil {
		return planResult{}, fmt.Errorf("schedule %s: %w", f.Name, err)
	}
	if err := be.Finish(); err != nil {
		return planResult{}, fmt.Errorf("execute %s on %s: %w", f.Name, be.Name(), err)
	}
	prog.done(fmt.Sprintf("Scheduled %d nodes", stats.Nodes))

	if ctx.Err() != nil {
		return planResult{}, ctx.Err()
	}

	r := planResult{frame: f, backend: be.Name(), stats: stats}
	if rb, ok := be.(*backend.RecordingBackend); ok {
		for _, cmd := range rb.Recording().Commands() {
			if !cmd.Type().IsLifecycle() {
				r.cmds = append(r.cmds, cmd)
			}
		}
	}
	return r, nil
}

func (c *CLI) printStats(s rg.Stats) {
	c.printInfo("statistics")
	c.printKeyValue("nodes", s.Nodes)
	c.printKeyValue("barriers", s.Barriers)
	c.printKeyValue("buffer barriers", s.BufferBarriers)
	c.printKeyValue("image barriers", s.ImageBarriers)
	c.printKeyValue("hoisted", s.Hoisted)
	c.printKeyValue("deferred", s.Deferred)
	c.printKeyValue("scope splits", s.ScopeSplits)
	c.printKeyValue("suppressed binds", s.SuppressedBinds)
}

// loadGraph reads a frame file and builds its graph, applying flag
// overrides on top of the frame's own options.
func (c *CLI) loadGraph(path, barriers string, noReorder bool) (*framefile.Frame, *rg.Graph, error) {
	f, err := framefile.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var extra []rg.Option
	if barriers != "" {
		policy, err := rg.ParseBarrierPolicy(barriers)
		if err != nil {
			return nil, nil, err
		}
		extra = append(extra, rg.WithBarrierPolicy(policy))
	}
	if noReorder {
		extra = append(extra, rg.WithoutReordering())
	}
	g, err := f.Build(extra...)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("frame loaded", "frame", f.Name, "nodes", g.Len(),
		"buffers", len(f.Buffers), "images", len(f.Images))
	return f, g, nil
}

func openBackend(name string) (backend.Backend, error) {
	if name == backendAuto {
		return backend.InitDefault()
	}
	be := backend.Get(name)
	if be == nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", backend.ErrBackendNotAvailable,
			name, strings.Join(backend.Available(), ", "))
	}
	if err := be.Init(); err != nil {
		return nil, fmt.Errorf("init %s backend: %w", name, err)
	}
	return be, nil
}

// submit runs the scheduler, turning a precondition panic into an error.
// Any other panic propagates.
func submit(g *rg.Graph, exec rg.Executor) (stats rg.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			var pe *rg.PreconditionError
			if e, ok := r.(error); ok && errors.As(e, &pe) {
				err = pe
				return
			}
			panic(r)
		}
	}()
	return rg.Submit(g, exec), nil
}
