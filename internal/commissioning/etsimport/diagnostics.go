package etsimport

import (
	"errors"
	"fmt"
	"log/slog"
)

// diagnostics collects non-fatal issues for Project.Warnings and mirrors
// them to the structured logger.
type diagnostics struct {
	logger   *slog.Logger
	warnings []ParseWarning
}

func newDiagnostics(logger *slog.Logger) *diagnostics {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &diagnostics{logger: logger}
}

func (d *diagnostics) warn(code, element, id, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, ParseWarning{
		Code:    code,
		Element: element,
		ID:      id,
		Message: msg,
	})
	d.logger.Warn(msg, "code", code, "element", element, "id", id)
}

// skipped records an element that was dropped because of err.
func (d *diagnostics) skipped(err error) {
	var elemErr *ElementError
	if !errors.As(err, &elemErr) {
		d.warn(WarnInvalidAttribute, "", "", "skipping element: %v", err)
		return
	}
	msg := "skipping element: " + elemErr.Error()
	d.warnings = append(d.warnings, ParseWarning{
		Code:    elemErr.code(),
		Element: elemErr.Element,
		ID:      elemErr.ID,
		Message: msg,
	})
	d.logger.Warn(msg,
		"element", elemErr.Element,
		"id", elemErr.ID,
		"attribute", elemErr.Attribute,
		"kind", elemErr.Kind.Error(),
	)
}

func (d *diagnostics) debug(msg string, args ...any) {
	d.logger.Debug(msg, args...)
}

func (d *diagnostics) info(msg string, args ...any) {
	d.logger.Info(msg, args...)
}
