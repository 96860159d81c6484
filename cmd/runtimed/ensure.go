package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"runtimed/cmd/runtimed/ui"
	"runtimed/internal/manager"
	"runtimed/pkg/types"
)

func ensureCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Reconcile the runtime container once and print its endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := openDeps(opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer deps.Close()
			steps := ui.NewStepOutput(cmd.ErrOrStderr())
			defer steps.Close()
			mgr := newManager(opts.cfg, deps, opts.log, steps.Tracer("runtimed/manager"))
			return runEnsure(cmd, mgr)
		},
	}
}

// runEnsure prints progress events while the reconciliation runs.
func runEnsure(cmd *cobra.Command, mgr *manager.Manager) error {
	out := cmd.OutOrStdout()
	events, unsubscribe := mgr.Subscribe(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range events {
			printEvent(out, e)
		}
	}()

	_, err := mgr.EnsureRuntimeReady(cmd.Context())
	unsubscribe()
	wg.Wait()
	if err != nil {
		fmt.Fprintln(out, ui.ErrorMsg("%v", err))
		return err
	}
	port, err := mgr.Port(cmd.Context())
	if err != nil {
		return err
	}
	s := mgr.Snapshot()
	fmt.Fprintln(out, ui.SuccessMsg("runtime ready (%s)", s.Action))
	printEndpoints(out, port)
	return nil
}

func printEvent(w io.Writer, e manager.Event) {
	switch e.Status {
	case manager.PullStarted:
		fmt.Fprintln(w, ui.InfoMsg("pulling %s", ui.Accent(e.Image)))
	case manager.PullDownloading:
		pct := 0
		if e.Progress != nil {
			pct = *e.Progress
		}
		fmt.Fprintf(w, "  %s %s\n", ui.ProgressBar(pct, 24), ui.Muted(e.Details))
	case manager.PullCompleted:
		fmt.Fprintln(w, ui.SuccessMsg("pulled %s", e.Image))
	case manager.PullExists:
		fmt.Fprintln(w, ui.InfoMsg("image %s present", e.Image))
	case manager.PullError:
		fmt.Fprintln(w, ui.ErrorMsg("pull failed: %s", e.Error))
	}
}

func printEndpoints(w io.Writer, port int) {
	ep := types.EndpointsFor(port)
	fmt.Fprint(w, ui.KeyValues("  ",
		ui.KV("port", fmt.Sprint(port)),
		ui.KV("local", ep.Local),
		ui.KV("tts", ep.TTS),
		ui.KV("download_ws", ep.DownloadWS),
	))
}
