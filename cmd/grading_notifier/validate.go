package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/grading-notifier/internal/codepost"
	"github.com/jonathan/grading-notifier/internal/config"
	"github.com/jonathan/grading-notifier/internal/slackmsg"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Validate secrets, API access, and the config file without notifying",
	Long: `Checks that the required environment variables are set, that the codePost
and Slack credentials are accepted, that the config file parses and validates,
that every configured Slack channel is reachable, and that every configured
course and assignment exists on codePost. No messages are sent and no
snapshots are written.`,
	RunE: validateCmd,
}

var validateConfigPath string

func init() {
	validateCommand.Flags().StringVar(&validateConfigPath, "config", "config.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(validateCommand)
}

func validateCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	problems := validateSetup(ctx)
	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintf(os.Stderr, "problem: %s\n", problem)
		}
		return fmt.Errorf("found %d problem(s)", len(problems))
	}

	fmt.Fprintln(os.Stdout, "setup is valid")
	return nil
}

// validateSetup runs every check it can and returns all problems found, so a
// broken setup is reported in one pass rather than one failure at a time.
func validateSetup(ctx context.Context) []string {
	var problems []string

	secrets, secretProblems := config.LoadSecrets()
	problems = append(problems, secretProblems...)

	var client *codepost.Client
	if secrets != nil {
		client = codepost.NewClient(secrets.CodePostAPIKey)
		valid, err := client.ValidateKey(ctx)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("failed to reach codePost: %v", err))
			client = nil
		case !valid:
			problems = append(problems, "codePost API key is invalid")
			client = nil
		}
	}

	var messenger *slackmsg.Messenger
	if secrets != nil {
		messenger = slackmsg.New(secrets.SlackToken)
		valid, err := messenger.CheckAuth(ctx)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("failed to reach Slack: %v", err))
			messenger = nil
		case !valid:
			problems = append(problems, "Slack API key is invalid")
			messenger = nil
		}
	}

	cfg, configProblems := config.Load(validateConfigPath, nil)
	problems = append(problems, configProblems...)

	if cfg != nil && messenger != nil {
		channelProblems, err := messenger.ValidateChannels(ctx, cfg.Channels)
		if err != nil {
			problems = append(problems, fmt.Sprintf("failed to validate Slack channels: %v", err))
		} else {
			problems = append(problems, channelProblems...)
		}
	}

	if cfg != nil && client != nil {
		problems = append(problems, validateCourses(ctx, client, cfg)...)
	}

	return problems
}

// validateCourses checks that every configured course and assignment exists
// on codePost.
func validateCourses(ctx context.Context, client *codepost.Client, cfg *config.Config) []string {
	keys := make([]string, 0, len(cfg.Courses))
	for key := range cfg.Courses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var problems []string
	for _, key := range keys {
		course := cfg.Courses[key]
		live, err := client.ListCourses(ctx, course.Name, course.Period)
		if err != nil {
			problems = append(problems, fmt.Sprintf("failed to look up course %q: %v", key, err))
			continue
		}
		if len(live) == 0 {
			problems = append(problems, fmt.Sprintf(
				"course %q with period %q could not be found", course.Name, course.Period))
			continue
		}

		liveNames := map[string]struct{}{}
		for _, assignment := range live[0].Assignments {
			liveNames[assignment.Name] = struct{}{}
		}
		for _, assignment := range course.Assignments {
			if _, ok := liveNames[assignment.Name]; !ok {
				problems = append(problems, fmt.Sprintf(
					"course %q does not have an assignment called %q", key, assignment.Name))
			}
		}
	}
	return problems
}
