package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"runtimed/internal/manager"
	"runtimed/pkg/types"
)

func portCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Print the last bound runtime port and its endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openPortStore(opts.cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			return runPort(cmd, store, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runPort(cmd *cobra.Command, store manager.PortStore, asJSON bool) error {
	port, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(types.PortResponse{Port: port, Endpoints: types.EndpointsFor(port)})
	}
	printEndpoints(cmd.OutOrStdout(), port)
	return nil
}
