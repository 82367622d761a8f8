package commands

import (
	"context"
	"fmt"

	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
)

type meCmd struct{}

func (meCmd) Name() string        { return "me" }
func (meCmd) Description() string { return "Показать текущего пользователя и его роль" }
func (meCmd) Usage() string       { return "me" }

func (meCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var me handlers.MeResponse
	if err := c.Get(ctx, "/auth/me", &me); err != nil {
		return err
	}
	fmt.Fprintf(Out, "subject:   %s\n", me.SubjectID)
	fmt.Fprintf(Out, "role:      %s\n", me.Role)
	if me.Email != "" {
		fmt.Fprintf(Out, "email:     %s\n", me.Email)
	}
	if me.FullName != "" {
		fmt.Fprintf(Out, "name:      %s\n", me.FullName)
	}
	fmt.Fprintf(Out, "since:     %s\n", me.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func init() { RegisterCmd(meCmd{}) }
