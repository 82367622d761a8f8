package commands

import (
	"context"
	"fmt"
	"net/url"

	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
)

type itemsCmd struct{}

func (itemsCmd) Name() string { return "items" }
func (itemsCmd) Description() string {
	return "Показать объявления (опционально по категории)"
}
func (itemsCmd) Usage() string { return "items [category]" }

func (itemsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	path := "/items"
	if len(args) == 1 {
		path += "?" + url.Values{"category": {args[0]}}.Encode()
	}
	var list []handlers.ItemDTO
	if err := publicClient(cfg).Get(ctx, path, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет записей")
		return nil
	}
	for _, it := range list {
		fmt.Fprintf(Out, "- %s  %s  price=%.2f  category=%s  status=%s  images=%d\n",
			it.ID, it.Title, it.Price, it.Category, it.Status, len(it.Images))
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
	return nil
}

func init() { RegisterCmd(itemsCmd{}) }
