package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	useraddName          string
	useraddPasswordStdin bool
)

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Register an account (the name admin becomes an administrator)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), useraddPasswordStdin)
		if err != nil {
			return err
		}
		if password == "" {
			return errors.New("password must not be empty")
		}

		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		user, err := rt.users.Register(cmd.Context(), useraddName, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tadmin=%t\n", user.ID, user.Username, user.IsAdmin)
		return nil
	},
}

func init() {
	useraddCmd.Flags().StringVar(&useraddName, "username", "", "account name")
	useraddCmd.Flags().BoolVar(&useraddPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = useraddCmd.MarkFlagRequired("username")
}

// promptPassword reads one line from in when fromStdin is set, otherwise
// prompts on the terminal without echo.
func promptPassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(prompt, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
