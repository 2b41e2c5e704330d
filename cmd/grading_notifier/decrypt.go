package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/grading-notifier/internal/config"
	"github.com/jonathan/grading-notifier/internal/store"
)

var decryptCommand = &cobra.Command{
	Use:   "decrypt <file>",
	Short: "Decrypt a cached snapshot file and print it as indented JSON",
	Long: `Decrypts a single encrypted snapshot file with the DECRYPTION_KEY from the
environment and prints the contents as indented JSON, or writes them to a file
with --out. Useful for inspecting what the notifier has recorded for a course.`,
	Args: cobra.ExactArgs(1),
	RunE: decryptCmd,
}

var decryptOutPath string

func init() {
	decryptCommand.Flags().StringVarP(&decryptOutPath, "out", "o", "", "Write the decrypted JSON to this file instead of stdout")

	rootCmd.AddCommand(decryptCommand)
}

func decryptCmd(_ *cobra.Command, args []string) error {
	key := os.Getenv(config.EnvDecryptionKey)
	if key == "" {
		return fmt.Errorf("environment variable %q could not be found", config.EnvDecryptionKey)
	}

	pretty, err := store.DecryptFile(args[0], key)
	if err != nil {
		return err
	}

	if decryptOutPath != "" {
		if err := os.WriteFile(decryptOutPath, append(pretty, '\n'), 0o600); err != nil {
			return fmt.Errorf("failed to write decrypted output: %w", err)
		}
		return nil
	}
	fmt.Fprintln(os.Stdout, string(pretty))
	return nil
}
