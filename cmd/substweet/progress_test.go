package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"substweet/internal/captions"
	"substweet/internal/config"
	"substweet/internal/publisher"
	"substweet/internal/services"
)

func TestProgressPrinterLines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, true)
	rec := captions.Record{ID: 4, Start: "00:01:02.500", End: "00:01:04.000", Text: []string{"two", "lines"}}

	p.CaptionStarted(rec)
	p.CaptionPosted(rec, publisher.Result{URL: "https://twitter.com/bot/status/7"})
	p.CaptionFailed(rec, errors.New("over capacity"))

	want := "[4: 00:01:02.500 - 00:01:04.000]\n\ttwo\n\tlines\n" +
		ansiGreen + "[4: https://twitter.com/bot/status/7]" + ansiReset + "\n" +
		ansiRed + "[4: Twitter error: over capacity]" + ansiReset + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestResolveCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Twitter.ConsumerKey = "ck"
	cfg.Twitter.ConsumerSecret = "cs"
	cfg.Twitter.AccessToken = "at"
	cfg.Twitter.AccessSecret = "as"

	creds, err := resolveCredentials(&cfg, strings.NewReader("ignored"), nil)
	if err != nil || creds.AccessSecret != "as" {
		t.Fatalf("expected configured credentials, got %+v (%v)", creds, err)
	}

	empty := config.Default()
	var prompt bytes.Buffer
	creds, err = resolveCredentials(&empty, strings.NewReader("  a  b c\td\n"), &prompt)
	if err != nil {
		t.Fatalf("resolve from input: %v", err)
	}
	if creds != (publisher.Credentials{ConsumerKey: "a", ConsumerSecret: "b", AccessToken: "c", AccessSecret: "d"}) {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if prompt.Len() != 0 {
		t.Fatalf("prompt must only be shown on a terminal, got %q", prompt.String())
	}

	for _, input := range []string{"", "a b c\n", "a b c d e\n"} {
		if _, err := resolveCredentials(&empty, strings.NewReader(input), nil); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("input %q: expected configuration error, got %v", input, err)
		}
	}
}
