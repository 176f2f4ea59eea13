package alert

import (
	"fmt"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
)

// FromConfig builds a dispatcher with the sinks listed in cfg.Sinks.
func FromConfig(cfg config.AlertConfig, devMode bool, recorder Recorder) (*Dispatcher, error) {
	var sinks []Sink
	for _, name := range cfg.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, LogSink{})
		case "kafka":
			s, err := NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
			if err != nil {
				return nil, fmt.Errorf("kafka alert sink: %w", err)
			}
			sinks = append(sinks, s)
		case "email":
			s, err := NewEmailSink(EmailConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.EmailFrom,
				To:       cfg.EmailTo,
			})
			if err != nil {
				return nil, fmt.Errorf("email alert sink: %w", err)
			}
			sinks = append(sinks, s)
		default:
			return nil, fmt.Errorf("unknown alert sink %q", name)
		}
	}
	return NewDispatcher(devMode, recorder, sinks...), nil
}
