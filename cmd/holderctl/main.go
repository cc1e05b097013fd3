package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/admin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	if err := admin.NewRootCommand(admin.OpenDatabase).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
