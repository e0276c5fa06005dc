package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bnema/addonctl/internal/ui/progress"
	"github.com/bnema/addonctl/internal/ui/prompt"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var (
	loginEmail  string
	loginNoPull bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your account",
	Long: `Sign in with email and password. The password is read from
ADDONCTL_PASSWORD when set, otherwise prompted for. When stdin is not a
terminal the password is read from its first line.

A successful login replaces the previous session and pulls the account's
addon collection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			if !interactive {
				return errors.New("--email is required when stdin is not a terminal")
			}
			if email, err = prompt.Ask("Email:", "you@example.com", false); err != nil {
				return err
			}
		}

		password := os.Getenv("ADDONCTL_PASSWORD")
		switch {
		case password != "":
		case interactive:
			if password, err = prompt.Ask("Password:", "", true); err != nil {
				return err
			}
		default:
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		progress.PrintInProgress("Signing in as " + email)
		if err := a.session.Login(ctx, email, password); err != nil {
			return describe(err)
		}
		progress.PrintComplete("Signed in as " + styles.Highlighted.Render(email))

		if loginNoPull {
			return nil
		}
		return pull(cmd, a)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <auth-key>",
	Short: "Open another account read-only",
	Long: `Start a read-only session using another account's auth key.
The collection can be pulled and inspected but not modified or pushed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		if err := a.session.Monitor(ctx, args[0]); err != nil {
			return describe(err)
		}
		fmt.Println(styles.FormatReadOnlyBadge() + " monitoring session started")
		return pull(cmd, a)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		if a.editor.HasUnsavedChanges() {
			fmt.Println(styles.FormatWarning("Unpushed local changes are discarded"))
		}
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Println(styles.FormatSuccess("Logged out"))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}
		info, err := a.session.Status(ctx)
		if err != nil {
			return err
		}

		if !info.LoggedIn {
			fmt.Println(styles.MutedText.Render("Not logged in"))
			return nil
		}

		account := info.Email
		if account == "" {
			account = "(auth key)"
		}
		line := "Account: " + styles.Highlighted.Render(account)
		if info.Monitoring {
			line += " " + styles.FormatReadOnlyBadge()
		}
		fmt.Println(line)

		c := a.editor.Counts()
		fmt.Printf("Addons:  %s, %d enabled, %d disabled\n",
			styles.FormatCount(c.Total, "addon", "addons"), c.Enabled, c.Disabled)
		fmt.Printf("Cache:   %s\n", a.cfg.CacheBackend)
		if a.cfg.File != "" {
			fmt.Printf("Config:  %s\n", a.cfg.File)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().BoolVar(&loginNoPull, "no-pull", false, "Do not pull the collection after signing in")
	rootCmd.AddCommand(loginCmd, monitorCmd, logoutCmd, statusCmd)
}
