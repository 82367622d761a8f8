package commands

import (
	"context"
	"fmt"

	"Marketplace/internal/config"
)

type tokenCmd struct{}

func (tokenCmd) Name() string        { return "token" }
func (tokenCmd) Description() string { return "Сохранить bearer-токен провайдера идентификации" }
func (tokenCmd) Usage() string       { return "token <jwt>" }

func (tokenCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	if err := NewTokenStore(cfg).Save(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Token saved to %s\n", cfg.TokenFile)
	return nil
}

func init() { RegisterCmd(tokenCmd{}) }
