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
    if err := newRootCmd(ctx, defaultDeps(), &code).Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        code = exitFailure
    }
    stop()
    os.Exit(code)
}
