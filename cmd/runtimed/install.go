package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"runtimed/cmd/runtimed/ui"
	"runtimed/internal/common/fsutil"
	"runtimed/internal/installer"
)

func installCmd(opts *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the container engine with the platform install script",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.cfg.ScriptsDir
			}
			if dir == "" {
				return errors.New("no scripts directory: set scripts_dir or pass --scripts-dir")
			}
			if !fsutil.PathExists(dir) {
				return fmt.Errorf("scripts directory %s does not exist", dir)
			}
			in := installer.Installer{
				Dir:  dir,
				GOOS: runtime.GOOS,
				Exec: installer.ForOS(runtime.GOOS, installer.ExecRunner{}),
				Log:  opts.log,
			}
			if err := in.Install(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessMsg("docker installation finished, run `runtimed check`"))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "scripts-dir", "", "Directory holding the platform install scripts")
	return cmd
}
