// carservice runs the car service authentication API.
//
// Usage:
//
//	carservice [--config FILE]
//	carservice keygen [--out-dir DIR] [--bits N]
//
// Without --config every setting is read from the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/Rapter1990/carservice-sub000/internal/auth/app"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && args[0] == "keygen" {
		return keygen(args[1:])
	}

	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("carservice", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file (environment overrides it)")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Println(app.BuildVersion)
		return nil
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.New(context.Background(), cfg, app.NewLogger(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run()
}

func keygen(args []string) error {
	var outDir string
	var bits int

	flagSet := pflag.NewFlagSet("carservice keygen", pflag.ContinueOnError)
	flagSet.StringVar(&outDir, "out-dir", ".", "directory to write private.pem and public.pem into")
	flagSet.IntVar(&bits, "bits", 2048, "RSA key size")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	privatePath, publicPath, err := app.WriteKeyPair(outDir, bits)
	if err != nil {
		return err
	}

	fmt.Printf("private key: %s\npublic key:  %s\n", privatePath, publicPath)
	fmt.Printf("set AUTH_PRIVATE_KEY_FILE=%s and AUTH_PUBLIC_KEY_FILE=%s\n", privatePath, publicPath)
	return nil
}
