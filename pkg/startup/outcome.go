package startup

import (
	"fmt"
	"log/slog"

	"mercator-hq/keyport/pkg/config"
	securityTLS "mercator-hq/keyport/pkg/security/tls"
	"mercator-hq/keyport/pkg/telemetry/tracing"
)

// Stage names one step of the startup sequence.
type Stage string

// Startup stages in execution order.
const (
	StageConfigLoad         Stage = "config-load"
	StagePortParse          Stage = "port-parse"
	StageSecurityConfigLoad Stage = "security-config-load"
	StageKeystoreDecode     Stage = "keystore-decode"
	StageTLSBuild           Stage = "tls-build"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageConfigLoad,
	StagePortParse,
	StageSecurityConfigLoad,
	StageKeystoreDecode,
	StageTLSBuild,
}

// StageError is the first failure of a startup run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Ready is everything the listener needs once startup succeeded.
type Ready struct {
	Port     int
	TLS      *securityTLS.ServerContext
	Settings config.Settings
	Logger   *slog.Logger

	// Tracer is the pipeline's tracer. Run shuts it down after serving when
	// the pipeline created it.
	Tracer *tracing.Tracer

	ownsTracer bool
}

// Outcome is the result of Prepare: exactly one of Ready and Failed is set.
type Outcome struct {
	Ready  *Ready
	Failed *StageError
}

// OK reports whether startup succeeded.
func (o Outcome) OK() bool {
	return o.Failed == nil && o.Ready != nil
}

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.Failed == nil {
		return nil
	}
	return o.Failed
}
