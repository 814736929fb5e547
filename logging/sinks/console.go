package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"shovebox/server/logging"
)

type ConsoleSink struct {
	logger *log.Logger
}

func NewConsoleSink(w io.Writer, cfg logging.ConsoleConfig) *ConsoleSink {
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags)}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	if s.logger == nil {
		return nil
	}
	payload := formatPayload(event.Payload)
	others := formatOthers(event.Others)
	s.logger.Printf("[%s] tick=%d subject=%s severity=%s%s%s", event.Type, event.Tick, formatObject(event.Subject), formatSeverity(event.Severity), others, payload)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func formatSeverity(sev logging.Severity) string {
	switch sev {
	case logging.SeverityDebug:
		return "debug"
	case logging.SeverityInfo:
		return "info"
	case logging.SeverityWarn:
		return "warn"
	case logging.SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func formatObject(ref logging.ObjectRef) string {
	if ref.Group == "" {
		if ref.Tag == "" {
			return "world"
		}
		return ref.Tag
	}
	if ref.Tag == "" {
		return fmt.Sprintf("%s/%d", ref.Group, ref.Slot)
	}
	return fmt.Sprintf("%s/%d(%s)", ref.Group, ref.Slot, ref.Tag)
}

func formatOthers(others []logging.ObjectRef) string {
	if len(others) == 0 {
		return ""
	}
	parts := make([]string, 0, len(others))
	for _, ref := range others {
		parts = append(parts, formatObject(ref))
	}
	return fmt.Sprintf(" others=%s", strings.Join(parts, ","))
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return fmt.Sprintf(" payload=%s", data)
}
