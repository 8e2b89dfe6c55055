package captions

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrMalformedTiming reports a block whose timing line cannot be split into
// start and end timestamps.
var ErrMalformedTiming = errors.New("malformed caption timing line")

const timingSeparator = " --> "

// Record is one subtitle block.
type Record struct {
	ID    int
	Start string
	End   string
	Text  []string
}

// Body returns the caption text as a single post body.
func (r Record) Body() string {
	return norm.NFC.String(strings.Join(r.Text, "\n"))
}

// Window parses the start and end timestamps. It is used for reporting only;
// the raw strings are what the transcoder receives.
func (r Record) Window() (start, end time.Duration, err error) {
	if start, err = ParseTimestamp(r.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseTimestamp(r.End); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

type parseState int

const (
	scanID parseState = iota
	expectTiming
	collectText
)

// Parse returns a lazy sequence of caption records read from raw SRT text.
// Iteration stops after the first error.
func Parse(raw []byte) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff"))))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		state := scanID
		var current Record
		line := 0

		flush := func() bool {
			state = scanID
			if len(current.Text) == 0 {
				return true
			}
			rec := current
			current = Record{}
			return yield(rec, nil)
		}

		for scanner.Scan() {
			line++
			text := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), "\r"))
			switch state {
			case scanID:
				id, err := strconv.Atoi(text)
				if err != nil || id <= 0 {
					continue
				}
				current = Record{ID: id}
				state = expectTiming
			case expectTiming:
				start, end, ok := strings.Cut(strings.ReplaceAll(text, ",", "."), timingSeparator)
				if !ok {
					yield(Record{}, fmt.Errorf("caption %d (line %d): %w: %q", current.ID, line, ErrMalformedTiming, text))
					return
				}
				current.Start = strings.TrimSpace(start)
				current.End = strings.TrimSpace(end)
				state = collectText
			case collectText:
				if text == "" {
					if !flush() {
						return
					}
					continue
				}
				current.Text = append(current.Text, text)
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read captions: %w", err))
			return
		}
		if state == collectText {
			flush()
		}
	}
}

// ParseAll drains Parse into a slice.
func ParseAll(raw []byte) ([]Record, error) {
	var records []Record
	for rec, err := range Parse(raw) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseTimestamp converts "HH:MM:SS.mmm" (or the raw comma form) into a duration.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q: expected HH:MM:SS.mmm", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("timestamp %q: invalid hours", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timestamp %q: invalid minutes", value)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("timestamp %q: invalid seconds", value)
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)).Round(time.Millisecond), nil
}

// FormatTimestamp renders a duration in the normalized "HH:MM:SS.mmm" form.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
