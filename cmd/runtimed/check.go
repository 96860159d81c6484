package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"runtimed/cmd/runtimed/ui"
	"runtimed/internal/engine"
	"runtimed/internal/manager"
)

func checkCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether the container engine is installed and running",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := engine.NewDocker(opts.log)
			if err != nil {
				return err
			}
			defer d.Close()
			return runCheck(cmd, newProbe(opts.cfg, d), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, probe manager.Probe, asJSON bool) error {
	st, err := probe.Check(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return json.NewEncoder(out).Encode(st)
	}
	fmt.Fprint(out, ui.KeyValues("",
		ui.KV("installed", ui.Bool(st.Installed)),
		ui.KV("running", ui.Bool(st.Running)),
	))
	switch {
	case !st.Installed:
		fmt.Fprintln(out, ui.WarnMsg("docker not found, run `runtimed install`"))
	case !st.Running:
		fmt.Fprintln(out, ui.WarnMsg("docker is installed but the daemon is not running"))
	}
	return nil
}
