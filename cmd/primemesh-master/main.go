package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"
)

func main() {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    code := exitFailure
    cmd := newRootCmd(ctx, os.Stdin, os.Stdout, defaultDeps(), &code)
    if err := cmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        code = exitFailure
    }
    stop()
    os.Exit(code)
}
