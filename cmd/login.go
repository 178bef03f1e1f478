package cmd

import (
	"context"
	"strings"

	"github.com/recruiterlab/rankdesk/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the recruiting backend and persist the session",
	Run: func(cmd *cobra.Command, _ []string) {
		login(cmd)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("email", "e", "", "recruiter account email")
	loginCmd.Flags().String("password-file", "", "file containing the account password")
}

func login(cmd *cobra.Command) {
	ctx := context.Background()
	zlog := mustLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	email := strings.TrimSpace(cmd.Flag("email").Value.String())
	if email == "" {
		prompt := promptui.Prompt{Label: "Email"}
		email, err = prompt.Run()
		if err != nil {
			zlog.Fatal("reading email", zap.Error(err))
		}
	}

	password, err := resolvePassword(cmd)
	if err != nil {
		zlog.Fatal("reading password", zap.Error(err))
	}

	manager, _ := newCore(config, zlog)

	s, err := manager.Establish(ctx, email, password)
	if err != nil {
		zlog.Fatal("logging in",
			zap.Error(err),
			zap.String("hint", "check the credentials and that the backend is reachable"),
		)
	}

	zlog.Info("logged in",
		zap.String("user", s.User.Email),
		zap.String("name", s.User.FullName),
	)
}

func resolvePassword(cmd *cobra.Command) (string, error) {
	file := strings.TrimSpace(cmd.Flag("password-file").Value.String())
	if file != "" {
		return secrets.Password(file)
	}

	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
	}
	return prompt.Run()
}
