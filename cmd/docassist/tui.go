package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docassist/internal/service"
	"docassist/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [file.pdf ...]",
		Short: "Load PDF files and ask questions in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session := service.Build(uuid.NewString(), opts)
			status := ""
			if len(uploads) > 0 {
				status = service.Describe(session.Upload(ctx, uploads))
			}
			_, err = tea.NewProgram(tui.New(ctx, session, status), tea.WithAltScreen()).Run()
			return err
		},
	}
}
