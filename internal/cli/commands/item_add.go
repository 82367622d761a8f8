package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
)

type itemAddCmd struct{}

func (itemAddCmd) Name() string { return "item-add" }
func (itemAddCmd) Description() string {
	return "Создать объявление, файлы изображений отправляются как data URL"
}
func (itemAddCmd) Usage() string { return "item-add <title> <price> <category> [image files...]" }

func (itemAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return ErrUsage
	}
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return ErrUsage
	}

	req := handlers.CreateItemRequest{
		Title:    args[0],
		Price:    &price,
		Category: args[2],
		Images:   make([]handlers.ImageEntry, 0, len(args)-3),
	}
	for _, path := range args[3:] {
		e, err := readImage(path)
		if err != nil {
			return err
		}
		req.Images = append(req.Images, e)
	}

	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var it handlers.ItemDTO
	if err := c.Post(ctx, "/items", req, &it); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Created:")
	printItem(it)
	return nil
}

// readImage читает файл и упаковывает его в data URL; тип определяется по содержимому.
func readImage(path string) (handlers.ImageEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return handlers.ImageEntry{}, fmt.Errorf("read %s: %w", path, err)
	}
	mt := http.DetectContentType(b)
	return handlers.ImageEntry{
		Base64:       "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b),
		OriginalName: filepath.Base(path),
		MimeType:     mt,
	}, nil
}

func init() { RegisterCmd(itemAddCmd{}) }
