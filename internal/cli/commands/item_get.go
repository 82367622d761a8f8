package commands

import (
	"context"
	"fmt"
	"net/url"

	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
)

type itemGetCmd struct{}

func (itemGetCmd) Name() string        { return "item-get" }
func (itemGetCmd) Description() string { return "Показать объявление по id" }
func (itemGetCmd) Usage() string       { return "item-get <id>" }

func (itemGetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return ErrUsage
	}
	var it handlers.ItemDTO
	if err := publicClient(cfg).Get(ctx, "/items/"+url.PathEscape(args[0]), &it); err != nil {
		return err
	}
	printItem(it)
	return nil
}

func printItem(it handlers.ItemDTO) {
	fmt.Fprintf(Out, "id:          %s\n", it.ID)
	fmt.Fprintf(Out, "title:       %s\n", it.Title)
	fmt.Fprintf(Out, "price:       %.2f\n", it.Price)
	fmt.Fprintf(Out, "category:    %s\n", it.Category)
	fmt.Fprintf(Out, "status:      %s\n", it.Status)
	fmt.Fprintf(Out, "owner:       %s\n", it.OwnerID)
	if it.Description != "" {
		fmt.Fprintf(Out, "description: %s\n", it.Description)
	}
	fmt.Fprintf(Out, "created:     %s\n", it.CreatedAt.Format("2006-01-02 15:04:05"))
	for i, img := range it.Images {
		fmt.Fprintf(Out, "image[%d]:    %s (%s, %s, %d bytes)\n", i, img.URL, img.OriginalFilename, img.MimeType, img.SizeBytes)
	}
}

func init() { RegisterCmd(itemGetCmd{}) }
