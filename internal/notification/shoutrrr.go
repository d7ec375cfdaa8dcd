package notification

import (
	"context"
	"io"
	stdlog "log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/voicediary/composite/internal/errors"
)

// ShoutrrrProvider sends through shoutrrr service URLs. A single router
// serves every URL.
type ShoutrrrProvider struct {
	name    string
	enabled bool
	urls    []string
	title   string
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrProvider creates a provider for urls. An empty title uses the event title.
func NewShoutrrrProvider(enabled bool, urls []string, title string, timeout time.Duration) *ShoutrrrProvider {
	return &ShoutrrrProvider{
		name:    "shoutrrr",
		enabled: enabled,
		urls:    slices.Clone(urls),
		title:   title,
		timeout: timeout,
	}
}

func (s *ShoutrrrProvider) GetName() string { return s.name }
func (s *ShoutrrrProvider) IsEnabled() bool { return s.enabled }

// ValidateConfig builds the router, which parses every URL.
func (s *ShoutrrrProvider) ValidateConfig() error {
	if !s.enabled {
		return nil
	}
	if len(s.urls) == 0 {
		return errors.Newf("at least one shoutrrr URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	sender, err := shoutrrr.CreateSender(s.urls...)
	if err != nil {
		return errors.New(err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("provider", s.name).
			Build()
	}
	if s.timeout > 0 {
		sender.Timeout = s.timeout
	}
	sender.SetLogger(stdlog.New(io.Discard, "", 0))
	s.sender = sender
	return nil
}

// Send delivers the event message. The router applies its own timeout.
func (s *ShoutrrrProvider) Send(_ context.Context, e *Event) error {
	if s.sender == nil {
		return errors.Newf("shoutrrr sender not initialized").
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}

	title := s.title
	if title == "" {
		title = e.Title()
	}
	params := stypes.Params{}
	params.SetTitle(title)

	for _, err := range s.sender.Send(e.Message(), &params) {
		if err != nil {
			return retryable(errors.New(err).
				Component("notification").
				Category(errors.CategoryNotification).
				Context("provider", s.name).
				Build())
		}
	}
	return nil
}
