package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func (a *app) jwtCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Prints an API token that may submit and refresh domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signed, err := signToken(a.cfg.JWT.PrivateKey, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)

			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "who the token is issued to, e.g. an operator name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long the token stays valid")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// signToken issues an RS256 token for subject that expires ttl after now.
func signToken(privateKeyPEM, subject string, ttl time.Duration, now time.Time) (string, error) {
	switch {
	case privateKeyPEM == "":
		return "", errors.New("jwt.privateKey is not configured")
	case subject == "":
		return "", errors.New("token subject must not be empty")
	case ttl <= 0:
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("could not parse jwt.privateKey: %w", err)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return signed, nil
}
