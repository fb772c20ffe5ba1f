package main

import (
	"errors"
	"fmt"

	"github.com/hupe1980/streamcluster/checkpoint"
	"github.com/spf13/cobra"
)

func newInspectCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [name]",
		Short: "Print the header and contents of a checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("inspect needs a checkpoint backend")
			}
			writer, err := writerFor(store, cfg, logger)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else if name, err = writer.Latest(ctx); err != nil {
				return err
			}

			data, err := store.Get(ctx, name)
			if err != nil {
				return err
			}
			h, _, err := checkpoint.ReadHeader(data)
			if err != nil {
				return err
			}
			st, err := writer.Load(ctx, name)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "name:         %s\n", name)
			fmt.Fprintf(w, "bytes:        %d (payload %d)\n", len(data), h.Size)
			fmt.Fprintf(w, "codec:        %s\n", h.Codec)
			fmt.Fprintf(w, "compression:  %s\n", h.Compression)
			fmt.Fprintf(w, "checksum:     %08x\n", h.Checksum)
			fmt.Fprintf(w, "capacity:     %d\n", st.Capacity)
			fmt.Fprintf(w, "phi:          %g\n", st.Phi)
			fmt.Fprintf(w, "initializing: %t\n", st.Initializing)
			fmt.Fprintf(w, "added:        %d\n", st.Added)
			fmt.Fprintf(w, "compactions:  %d\n", st.Compactions)
			fmt.Fprintf(w, "centers:      %d\n", len(st.Points))
			for _, p := range st.Points {
				fmt.Fprintf(w, "  [%7.3f %7.3f %7.3f]  weight=%d\n", p.Item[0], p.Item[1], p.Item[2], p.Weight)
			}

			if names, err := writer.List(ctx); err == nil {
				fmt.Fprintf(w, "checkpoints:  %d\n", len(names))
			}
			return nil
		},
	}
	return cmd
}
