package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("devsocial Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		url := prompt(scanner, "Supabase project URL", os.Getenv("SUPABASE_URL"))
		key := prompt(scanner, "Supabase service key", os.Getenv("SUPABASE_KEY"))
		listen := prompt(scanner, "HTTP listen address", ":8080")
		mode := prompt(scanner, "Auth mode (basic or token)", "basic")

		var b strings.Builder
		fmt.Fprintf(&b, "SUPABASE_URL=%s\n", url)
		fmt.Fprintf(&b, "SUPABASE_KEY=%s\n", key)
		fmt.Fprintf(&b, "HTTP_LISTEN=%s\n", listen)
		fmt.Fprintf(&b, "AUTH_MODE=%s\n", mode)

		if err := os.WriteFile(".env", []byte(b.String()), 0600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to .env")
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
