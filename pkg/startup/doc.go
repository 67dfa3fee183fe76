// Package startup composes configuration loading, keystore decoding and TLS
// context construction into a single fail-fast sequence.
//
// Each stage returns a value or an error. The first error stops the
// sequence and is wrapped in a *StageError naming the stage:
//
//	config-load → port-parse → security-config-load → keystore-decode → tls-build
//
// Run prints one diagnostic line for a failure, hands a successful result to
// a Listener and turns the outcome into a process exit code:
//
//	p := &startup.Pipeline{
//	    Resolver:    properties.DirResolver{Root: "resources"},
//	    NewListener: newListener,
//	    Diagnostics: os.Stderr,
//	}
//	os.Exit(p.Run(ctx, "application.properties"))
//
// Diagnostics name the failing key, path or alias. Password values never
// appear in them.
package startup
