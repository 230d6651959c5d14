package main

import (
	"fmt"

	"github.com/go-go-golems/subwatch/pkg/client"
	"github.com/go-go-golems/subwatch/pkg/config"
	"github.com/go-go-golems/subwatch/pkg/logging"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var form submit.Form

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send a submission without opening the TUI",
		Long: `Send one submission. --file is read and its contents sent when it names
a readable file; otherwise the value is sent as given.

Only missing fields fail the command. A rejected or unreachable server is
reported but, like the form in the TUI, does not change the exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			cl, err := client.New(cfg.BaseURL, cfg.RequestTimeout)
			if err != nil {
				return err
			}
			s := submit.NewSubmitter(cl, cfg.SubmitPath)
			s.Log = log.With().Str("component", "submit").Logger()

			err = s.Submit(cmd.Context(), form)
			switch {
			case errors.Is(err, submit.ErrInvalid):
				return err
			case err != nil:
				fmt.Fprintln(cmd.ErrOrStderr(), "submission not confirmed:", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "submitted")
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.TeamName, "team", "t", "", "team name")
	cmd.Flags().StringVarP(&form.CodeFile, "file", "f", "", "code file to send")
	return cmd
}
