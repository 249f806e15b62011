package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tdameron/freshen/internal/interactive"
	"github.com/tdameron/freshen/internal/output"
	"github.com/tdameron/freshen/internal/updater"
)

type updateOptions struct {
	tag              string
	yes              bool
	silenceInstaller bool
}

func newUpdateCmd() *cobra.Command {
	opts := updateOptions{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the app to the latest release",
		Long: `Check the app's release host for a newer version and install it.

Examples:
  myapp-update update                 # Update to the latest release
  myapp-update update --tag v0.9.0    # Install an exact release, even older
  myapp-update update --yes           # Skip the confirmation prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts)
		},
	}

	cmd.Flags().StringVar(&opts.tag, "tag", "", "Install this exact release tag instead of the latest")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.silenceInstaller, "silence-installer", false, "Hide installer output")

	return cmd
}

func runUpdate(opts updateOptions) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	writer := output.NewWriter(os.Stdout, format)

	u, err := buildUpdater(updater.Request{Tag: opts.tag}, opts.silenceInstaller)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chk, err := u.Check(ctx)
	if err != nil {
		return err
	}
	if !chk.UpdateNeeded {
		return writer.Write(output.UpdateReport{
			App:        u.AppName(),
			OldVersion: chk.Current.String(),
			Updated:    false,
		})
	}

	if !opts.yes && interactive.IsTerminal() {
		prompter := interactive.NewPrompter()
		if !prompter.ConfirmUpdate(u.AppName(), chk.Current.String(), chk.Target.Version.String()) {
			return writer.Write(output.UpdateReport{
				App:        u.AppName(),
				OldVersion: chk.Current.String(),
				Updated:    false,
			})
		}
	}

	res, err := u.Run(ctx)
	if err != nil {
		return err
	}
	report := output.UpdateReport{
		App:        u.AppName(),
		OldVersion: chk.Current.String(),
		Updated:    false,
	}
	if res != nil {
		report.NewVersion = res.NewVersion.String()
		report.Tag = res.Tag
		report.InstallPrefix = res.InstallPrefix
		report.Updated = true
	}
	return writer.Write(report)
}
