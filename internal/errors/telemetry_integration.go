package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError sends a scrubbed event for the error to Sentry, once per error.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))
	title := errorTitle(ee)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_title", title)
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = scrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		level := levelFor(ee.Category)
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.Component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = level
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// InitSentry configures the Sentry SDK and installs a SentryReporter as the
// global reporter. An empty dsn leaves telemetry disabled.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		SetTelemetryReporter(nil)
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	}); err != nil {
		return New(err).
			Component("telemetry").
			Category(CategoryConfiguration).
			Build()
	}
	SetTelemetryReporter(NewSentryReporter(true))
	return nil
}

// FlushSentry waits for buffered events to be delivered.
func FlushSentry(timeout time.Duration) {
	if GetTelemetryReporter() != nil {
		sentry.Flush(timeout)
	}
}

func errorTitle(ee *EnhancedError) string {
	parts := make([]string, 0, 3)
	if ee.Component != "" && ee.Component != ComponentUnknown {
		parts = append(parts, titleCase(ee.Component))
	}
	parts = append(parts, titleCase(strings.ReplaceAll(string(ee.Category), "-", " "))+" Error")
	if op, ok := ee.Context["operation"].(string); ok && op != "" {
		parts = append(parts, titleCase(strings.ReplaceAll(op, "_", " ")))
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func levelFor(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryNetwork, CategoryTimeout, CategoryMQTTConnection, CategoryMQTTPublish, CategoryNotification:
		return sentry.LevelWarning
	case CategoryNotFound, CategoryConflict:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}

var (
	reporterMu              sync.RWMutex
	globalTelemetryReporter TelemetryReporter
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	globalTelemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return globalTelemetryReporter
}

func reportToTelemetry(ee *EnhancedError) {
	if r := GetTelemetryReporter(); r != nil && r.IsEnabled() {
		r.ReportError(ee)
	}
}

var (
	urlQueryRegex = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	userInfoRegex = regexp.MustCompile(`(\w+://)[^/@\s]+@`)
	secretRegex   = regexp.MustCompile(`(?i)(password|token|api[_-]?key|secret)[=:]\S+`)
)

// scrubMessage removes credentials and query strings from messages before they leave the process.
func scrubMessage(message string) string {
	scrubbed := urlQueryRegex.ReplaceAllString(message, "$1?[REDACTED]")
	scrubbed = userInfoRegex.ReplaceAllString(scrubbed, "$1[REDACTED]@")
	return secretRegex.ReplaceAllString(scrubbed, "$1=[REDACTED]")
}
