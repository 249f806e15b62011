package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tdameron/freshen/internal/output"
	"github.com/tdameron/freshen/internal/updater"
)

func newCheckCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether an update is available without installing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(tag)
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Check against this exact release tag instead of the latest")

	return cmd
}

func runCheck(tag string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	writer := output.NewWriter(os.Stdout, format)

	u, err := buildUpdater(updater.Request{Tag: tag}, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chk, err := u.Check(ctx)
	if err != nil {
		return err
	}
	return writer.Write(output.CheckReport{
		App:          u.AppName(),
		Installed:    chk.Current.String(),
		Available:    chk.Target.Version.String(),
		Tag:          chk.Target.Tag,
		UpdateNeeded: chk.UpdateNeeded,
	})
}
