package gateway

import (
	"bytes"
	"encoding/xml"
)

// TwiML builders for the bridge webhook. Built with encoding/xml rather than
// string concatenation so phone numbers and messages are always escaped.
//
// The webhook must return a well-formed document with HTTP 200 in every case:
// Twilio's renderer ignores transport-level status codes, so failures are
// signaled by the spoken content instead.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlDial struct {
	XMLName  xml.Name `xml:"Dial"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Number   string   `xml:"Number"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// BridgeTwiML whispers a short announcement to the affiliate, then dials the
// lead with the service number as caller ID so the lead never sees the
// affiliate's personal number.
func (c *Client) BridgeTwiML(leadPhone string) (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{
		twimlSay{Voice: "alice", Language: "en-US", Text: "Connecting you to your callback."},
		twimlDial{CallerID: c.fromNumber, Number: leadPhone},
	}})
}

// ErrorTwiML speaks message to the affiliate and hangs up. Used when the
// webhook request is malformed so the affiliate hears a reason instead of
// silence.
func ErrorTwiML(message string) (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{
		twimlSay{Text: message},
		twimlHangup{},
	}})
}

func renderTwiML(r twimlResponse) (string, error) {
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
