package models

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var ticketRe = regexp.MustCompile(`^TL\d{9}$`)

// NewTicketCode returns "TL" + yymmdd + a 3-digit random suffix.
// Codes are not unique; the loan id is the real key.
func NewTicketCode(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("TL%02d%02d%02d%03d", at.Year()%100, int(at.Month()), at.Day(), rand.IntN(1000))
}

func ValidTicketCode(s string) bool { return ticketRe.MatchString(s) }

// QRPayload is what the printed label of an item encodes.
type QRPayload struct {
	ToolID    string `json:"toolId"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

func NewQRPayload(itemID string, at time.Time) (string, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(QRPayload{
		ToolID:    itemID,
		Type:      "tool",
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ParseQRPayload(s string) (*QRPayload, error) {
	var p QRPayload
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(s, &p); err != nil {
		return nil, errors.Wrap(err, "decode qr payload")
	}
	if p.Type != "tool" || p.ToolID == "" {
		return nil, errors.New("not a tool label")
	}
	return &p, nil
}
