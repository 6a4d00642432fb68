package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docassist/internal/service"
)

func newAskCmd(a *app) *cobra.Command {
	var files []string
	var summary bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question about the given PDF files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !summary {
				return errors.New("a question or --summary is required")
			}
			opts, err := a.options()
			if err != nil {
				return err
			}
			uploads, err := readUploads(files)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session := service.Build(uuid.NewString(), opts)
			results := session.Upload(ctx, uploads)
			if service.CountStatus(results, service.StatusFailed) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), service.Describe(results))
			}

			var out string
			if summary {
				out, err = session.Summary(ctx)
			} else {
				out, err = session.Query(ctx, args[0])
			}
			if err != nil {
				return errors.New(service.UserMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "PDF file to load (repeatable)")
	cmd.Flags().BoolVar(&summary, "summary", false, "summarize the files instead of answering a question")
	return cmd
}
