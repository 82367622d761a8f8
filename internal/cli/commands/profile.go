package commands

import (
	"context"
	"fmt"
	"strings"

	"Marketplace/internal/config"
	"Marketplace/internal/model"
)

type profileCmd struct{}

func (profileCmd) Name() string { return "profile" }
func (profileCmd) Description() string {
	return "Создать профиль, если его ещё нет (существующий не меняется)"
}
func (profileCmd) Usage() string { return "profile [full_name]" }

func (profileCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	body := map[string]string{}
	if len(args) > 0 {
		body["full_name"] = strings.Join(args, " ")
	}
	var p model.Profile
	if err := c.Post(ctx, "/auth/profile", body, &p); err != nil {
		return err
	}
	fmt.Fprintf(Out, "id:        %s\n", p.ID)
	fmt.Fprintf(Out, "role:      %s\n", p.Role)
	fmt.Fprintf(Out, "name:      %s\n", p.FullName)
	return nil
}

func init() { RegisterCmd(profileCmd{}) }
