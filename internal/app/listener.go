package app

import (
	"log/slog"

	"github.com/vk/artifex/internal/transform"
)

// logListener reports step invocations to the application logger.
type logListener struct {
	logger *slog.Logger
}

func (l *logListener) BeforeTransform(step transform.Step, subject transform.Subject) {
	l.logger.Info("▶️ Transforming", "step", step.DisplayName(), "subject", subject.DisplayName())
}

func (l *logListener) AfterTransform(step transform.Step, subject transform.Subject) {
	if subject.Failed() {
		l.logger.Warn("⚠️ Transform produced a failure", "step", step.DisplayName(), "subject", subject.DisplayName(), "failure", subject.Failure())
		return
	}
	l.logger.Info("✅ Transformed", "step", step.DisplayName(), "subject", subject.DisplayName(), "files", len(subject.Files()))
}
