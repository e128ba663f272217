package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/neurolens/pkg/model"
)

const credentialsFileName = "credentials.json"

// credentials is the stored session of one server.
type credentials struct {
	Server  string `json:"server"`
	Session string `json:"session"`
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the dashboard",
		Long:  "Submit demo credentials and store the session cookie for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if !cmd.Flags().Changed("username") {
				v, err := prompt(cmd.OutOrStdout(), in, "Username: ")
				if err != nil {
					return err
				}
				username = v
			}
			if !cmd.Flags().Changed("password") {
				v, err := prompt(cmd.OutOrStdout(), in, "Password: ")
				if err != nil {
					return err
				}
				password = v
			}

			resp, err := client.Post("/api/v1/login", model.LoginRequest{Username: username, Password: password})
			var res model.LoginResult
			if resp != nil {
				json.Unmarshal(resp.Data, &res)
			}
			printBanners(cmd.OutOrStdout(), res.Banners)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			credPath, err := saveCredentials(credentials{Server: client.BaseURL, Session: client.Session})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (attempt %d)\n", username, res.Attempts)
			fmt.Fprintf(cmd.OutOrStdout(), "Session saved to %s\n", credPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/logout", nil); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			p, err := credentialsPath()
			if err != nil {
				return err
			}
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove credentials: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// prompt reads one line. The value is returned as typed, only the line
// ending is removed.
func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// credentialsPath returns the path to the credentials file (~/.neurolens/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".neurolens", credentialsFileName), nil
}

func saveCredentials(creds credentials) (string, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return credPath, nil
}

// LoadSession returns the stored session for server, or "" if there is none.
func LoadSession(server string) string {
	p, err := credentialsPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	if creds.Server != server {
		return ""
	}
	return creds.Session
}
