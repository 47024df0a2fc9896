package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"dogloot/server/logging"
)

// Console is a human-readable sink for local development; the JSON sink
// remains the sink of record for the required wire format.
type Console struct {
	logger *log.Logger
}

func NewConsole(w io.Writer) *Console {
	return &Console{logger: log.New(w, "", log.LstdFlags)}
}

func (s *Console) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	s.logger.Printf("%s%s", event.Message, formatData(event.Data))
	return nil
}

func (s *Console) Close(context.Context) error {
	return nil
}

func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(" data=%v", data)
	}
	return fmt.Sprintf(" data=%s", encoded)
}
