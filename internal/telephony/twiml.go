package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal TwiML builder for the voicemail drop. Avoids any provider SDK
// dependency; only the verbs the adapter needs.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoicemailTwiML renders the document played into a recipient's voicemail:
// a short pause (lets the greeting beep pass), the script, then hangup.
func VoicemailTwiML(script string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", errors.New("telephony: voicemail script is empty")
	}

	r := twimlResponse{Verbs: []any{
		twimlPause{Length: 1},
		twimlSay{Voice: "alice", Text: script},
		twimlHangup{},
	}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
