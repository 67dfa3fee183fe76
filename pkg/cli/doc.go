/*
Package cli provides command-line helpers for the keyport binary.

Output Formatting:

Command results are printed as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, entries); err != nil {
		return err
	}

Passwords:

Keystore passwords are read from an environment variable when one is named,
otherwise from the terminal without echo:

	src := &cli.PasswordSource{In: os.Stdin, Prompt: os.Stderr}
	pw, err := src.Read("Keystore password: ", "KEYSTORE_PASS")

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

Commands that need a specific exit status return an *ExitError; Main-style
callers read it back with ExitCode.
*/
package cli
