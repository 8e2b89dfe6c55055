package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"substweet/internal/media/ffmpeg"
	"substweet/internal/preflight"
	"substweet/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and notification setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			depRows := make([][]string, 0, len(statuses))
			missingRequired := 0
			var runner ffmpeg.Runner
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					state = "missing"
					if !s.Optional {
						missingRequired++
					}
				}
				if s.Name == "FFmpeg" && s.Available {
					runner = ffmpeg.NewRunner(s.Command)
				}
				depRows = append(depRows, []string{s.Name, s.Command, yesNo(!s.Optional), state, valueOr(s.Detail, s.Description)})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Dependency"},
				{header: "Command"},
				{header: "Required"},
				{header: "Status"},
				{header: "Detail", width: 50},
			}, depRows))

			results := preflight.RunAll(cmd.Context(), cfg, runner)
			checkRows := make([][]string, 0, len(results)+1)
			for _, r := range results {
				checkRows = append(checkRows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			checkRows = append(checkRows, []string{"Credentials", passLabel(cfg.HasCredentials()), credentialsDetail(cfg.HasCredentials())})
			fmt.Fprintln(out, renderTable([]column{
				{header: "Check"},
				{header: "Result"},
				{header: "Detail", width: 60},
			}, checkRows))

			failed := preflight.Failed(results)
			if missingRequired == 0 && len(failed) == 0 {
				fmt.Fprintln(out, "All checks passed")
				return nil
			}
			names := make([]string, 0, len(failed))
			for _, r := range failed {
				names = append(names, r.Name)
			}
			if missingRequired > 0 {
				names = append(names, "required binaries")
			}
			return services.Wrap(services.ErrConfiguration, "doctor", "checks", "failed: "+strings.Join(names, ", "), nil)
		},
	}
}

func passLabel(ok bool) string {
	if ok {
		return "pass"
	}
	return "FAIL"
}

func credentialsDetail(ok bool) string {
	if ok {
		return "all four secrets present"
	}
	return "will be read from stdin when posting"
}
