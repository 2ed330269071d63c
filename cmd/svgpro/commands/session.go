package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionDir string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect, export, and import chat sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrapForSession()
		if err != nil {
			return err
		}
		defer a.close()

		ids, err := a.sessions.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <session-id> <file>",
	Short: "Write a session record to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrapForSession()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.sessions.Export(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s\n", args[0], args[1])
		return nil
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a session from a record file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrapForSession()
		if err != nil {
			return err
		}
		defer a.close()

		sess, err := a.sessions.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported session %s (%d messages)\n", sess.ID(), sess.Len())
		return nil
	},
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionDir, "directory", "", "Working directory")
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionExportCmd)
	sessionCmd.AddCommand(sessionImportCmd)
}

func bootstrapForSession() (*app, error) {
	workDir, err := GetWorkDir(sessionDir)
	if err != nil {
		return nil, err
	}
	return bootstrap(workDir)
}
