package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"substweet/internal/config"
	"substweet/internal/publisher"
	"substweet/internal/services"
)

const secretsPrompt = "Enter secrets (consumer key, consumer secret, access token, access secret): "

// resolveCredentials prefers secrets from the config sources and falls back
// to one space-separated line on in. The prompt is written only when in is a
// terminal.
func resolveCredentials(cfg *config.Config, in io.Reader, prompt io.Writer) (publisher.Credentials, error) {
	if cfg != nil && cfg.HasCredentials() {
		return publisher.Credentials{
			ConsumerKey:    cfg.Twitter.ConsumerKey,
			ConsumerSecret: cfg.Twitter.ConsumerSecret,
			AccessToken:    cfg.Twitter.AccessToken,
			AccessSecret:   cfg.Twitter.AccessSecret,
		}, nil
	}
	if in == nil {
		return publisher.Credentials{}, services.Wrap(services.ErrConfiguration, "credentials", "read", "no credentials configured and no input available", nil)
	}
	if isTerminal(in) && prompt != nil {
		fmt.Fprint(prompt, secretsPrompt)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return publisher.Credentials{}, services.Wrap(services.ErrConfiguration, "credentials", "read", "", err)
	}
	if strings.TrimSpace(line) == "" {
		return publisher.Credentials{}, services.Wrap(services.ErrConfiguration, "credentials", "read",
			fmt.Sprintf("no credentials configured; set %s and friends or pipe them on stdin", config.EnvConsumerKey), nil)
	}
	return publisher.ParseCredentialsLine(line)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
