package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/svgpro/svgpro/internal/chat"
	"github.com/svgpro/svgpro/internal/dispatch"
)

var (
	runSession  string
	runContinue bool
	runDir      string
	runModel    string
	runPrompt   string
)

var runCmd = &cobra.Command{
	Use:   "run [message...]",
	Short: "Run one generation cycle from the command line",
	Long: `Send a message, wait for a validated response, and write the accepted
markup into the workspace document.

Examples:
  svgpro run "a blue circle on a white field"
  svgpro run --continue "make the circle bigger"
  svgpro run --session 01J0... "add a border"`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "Session ID to continue")
	runCmd.Flags().BoolVarP(&runContinue, "continue", "c", false, "Continue the most recent session")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "Replace the system directive for this session")
}

func runOnce(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message required. Usage: svgpro run \"your message\"")
	}

	a, err := bootstrap(workDir)
	if err != nil {
		return err
	}
	defer a.close()

	if runModel != "" {
		a.cfg.Model = runModel
	}

	ctx := cmd.Context()
	if err := a.waitForProvider(ctx, 30*time.Second); err != nil {
		return fmt.Errorf("completion service not reachable: %w", err)
	}

	sess, err := resolveSession(cmd, a)
	if err != nil {
		return err
	}
	if runPrompt != "" {
		sess.SetSystemPrompt(runPrompt)
	}

	prov, err := a.registry.Get(a.cfg.Provider)
	if err != nil {
		return err
	}

	agent := chat.NewAgent(sess, chat.ModelConfig{
		Model:            a.cfg.Model,
		Temperature:      a.cfg.Temperature,
		TopP:             a.cfg.TopP,
		MaxTokens:        a.cfg.MaxTokens,
		FrequencyPenalty: a.cfg.FrequencyPenalty,
		PresencePenalty:  a.cfg.PresencePenalty,
		ContextWindow:    a.cfg.ContextWindow,
	})
	ctrl := chat.NewController(agent, dispatch.New(prov), a.editor, a.cfg.MaxAttempts)

	fmt.Printf("Session %s, model %s\n", sess.ID(), a.cfg.Model)

	outcomes, err := ctrl.Send(ctx, message)
	if err != nil {
		return err
	}
	out := <-outcomes

	if saveErr := a.sessions.Save(ctx, sess); saveErr != nil {
		return saveErr
	}

	if out.Err != nil {
		var exh *chat.ExhaustedRetriesError
		if errors.As(out.Err, &exh) {
			return errors.New(exh.Notice())
		}
		return out.Err
	}

	fmt.Println(out.Response)
	fmt.Printf("\nDocument updated: %s\n", a.editor.Path())
	return nil
}

func resolveSession(cmd *cobra.Command, a *app) (*chat.Session, error) {
	ctx := cmd.Context()

	switch {
	case runSession != "":
		return a.sessions.Get(ctx, runSession)
	case runContinue:
		ids, err := a.sessions.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			// Session ids are ULIDs, so the lexicographically last one is
			// the most recent.
			return a.sessions.Get(ctx, ids[len(ids)-1])
		}
	}
	return a.sessions.Create(ctx)
}
