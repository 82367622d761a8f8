package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"Marketplace/internal/apperr"
	"Marketplace/internal/cli/api"
	fsrepo "Marketplace/internal/cli/repo/fs"
	"Marketplace/internal/config"
)

// Коды завершения mkcli.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitRetryable = 3 // сервер временно недоступен, запрос можно повторить
)

// Dispatch выполняет команду и возвращает код завершения процесса.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// глобальный --help после разбора флагов
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" { // mkcli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprintf(Out, "Usage: %s\n  %s\n", c.Usage(), c.Description())
			return ExitOK
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	err := c.Run(ctx, cfg, args[1:])
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrUsage) {
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	}
	fmt.Fprintf(Out, "%s error: %v\n", name, err)
	return exitCode(err)
}

// exitCode различает ошибки, после которых имеет смысл повторить запрос,
// и подсказывает, что делать с токеном.
func exitCode(err error) int {
	if errors.Is(err, fsrepo.ErrNoToken) {
		return ExitFailure
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return ExitFailure
	}
	if apiErr.Kind() == apperr.KindUnauthenticated {
		fmt.Fprintln(Out, "hint: token is missing or expired, save a fresh one with `mkcli token <jwt>`")
	}
	if apiErr.Body.Retryable || (apiErr.Status >= 502 && apiErr.Status <= 504) || apiErr.Status == 429 {
		return ExitRetryable
	}
	return ExitFailure
}
