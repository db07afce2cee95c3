// Package whatsapp parses exported WhatsApp chat text. The importer
// feeds every message back into the token store with its original send
// time, so records recovered from a chat keep their real age.
package whatsapp

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Message is one chat message with its send time.
type Message struct {
	Timestamp time.Time
	Sender    string
	Text      string
}

var (
	// Android export: "03/02/2024, 18:45 - Alice: text"
	androidLine = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}), (\d{1,2}:\d{2}(?::\d{2})?)\s?([APap][Mm])? - (.*)$`)
	// iOS export: "[03/02/24, 18:45:12] Alice: text"
	iosLine = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}), (\d{1,2}:\d{2}(?::\d{2})?)\s?([APap][Mm])?\] (.*)$`)
)

type lineKind int

const (
	lineMessage lineKind = iota
	lineNotice
	lineContinuation
)

// ParseExport reads a chat export and returns its messages in order.
// System notices (encryption banner, joins, subject changes) have no
// "Sender: " part and are dropped, as are media placeholders. Lines
// that start no new message continue the previous one.
func ParseExport(r io.Reader) ([]Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var messages []Message
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		// WhatsApp sprinkles direction marks and the odd BOM into exports.
		line = strings.Trim(line, "\u200e\u200f\ufeff")
		if strings.TrimSpace(line) == "" {
			continue
		}

		msg, kind := parseLine(line)
		switch kind {
		case lineMessage:
			if msg.Text == "<Media omitted>" {
				continue
			}
			messages = append(messages, msg)
		case lineContinuation:
			if len(messages) > 0 {
				messages[len(messages)-1].Text += "\n" + line
			}
		case lineNotice:
			// dropped
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chat export: %w", err)
	}
	return messages, nil
}

func parseLine(line string) (Message, lineKind) {
	var dateStr, timeStr, ampm, rest string
	if m := iosLine.FindStringSubmatch(line); m != nil {
		dateStr, timeStr, ampm, rest = m[1], m[2], m[3], m[4]
	} else if m := androidLine.FindStringSubmatch(line); m != nil {
		dateStr, timeStr, ampm, rest = m[1], m[2], m[3], m[4]
	} else {
		return Message{}, lineContinuation
	}

	sender, text, found := strings.Cut(rest, ": ")
	if !found {
		return Message{}, lineNotice
	}

	ts, err := parseTimestamp(dateStr, timeStr, ampm)
	if err != nil {
		return Message{}, lineNotice
	}

	return Message{
		Timestamp: ts,
		Sender:    strings.TrimSpace(sender),
		Text:      text,
	}, lineMessage
}

// parseTimestamp assembles a UTC time from the export's date and time
// parts. Dates are read day-first, matching WhatsApp's default outside
// the US locale.
func parseTimestamp(dateStr, timeStr, ampm string) (time.Time, error) {
	dateParts := strings.Split(dateStr, "/")
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("malformed date %q", dateStr)
	}
	day, err1 := strconv.Atoi(dateParts[0])
	month, err2 := strconv.Atoi(dateParts[1])
	year, err3 := strconv.Atoi(dateParts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("malformed date %q", dateStr)
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date %q out of range", dateStr)
	}

	timeParts := strings.Split(timeStr, ":")
	hour, err := strconv.Atoi(timeParts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed time %q", timeStr)
	}
	minute, err := strconv.Atoi(timeParts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed time %q", timeStr)
	}
	second := 0
	if len(timeParts) > 2 {
		if second, err = strconv.Atoi(timeParts[2]); err != nil {
			return time.Time{}, fmt.Errorf("malformed time %q", timeStr)
		}
	}

	switch strings.ToUpper(ampm) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}
