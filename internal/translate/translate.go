// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate turns English text into the target language through a
// pluggable translation backend.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned by backends asked to translate nothing, and by
// backends whose service answered with nothing.
var ErrEmptyText = errors.New("empty text")

// Backend is a translation service.
type Backend interface {
	Translate(ctx context.Context, text, src, dest string) (string, error)
}

// NormalizeTag validates a BCP 47 language tag and returns its canonical
// form, e.g. "zh-cn" becomes "zh-CN".
func NormalizeTag(tag string) (string, error) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("language tag %q: %w", tag, err)
	}
	return t.String(), nil
}

// Service adapts a Backend to the apply stage: it fixes the language pair
// and reports failures as a false second result instead of an error.
type Service struct {
	backend   Backend
	src, dest string
	log       logrus.FieldLogger
}

// NewService returns a Service translating from src to dest with b.
func NewService(b Backend, src, dest string, log logrus.FieldLogger) (*Service, error) {
	s, err := NormalizeTag(src)
	if err != nil {
		return nil, fmt.Errorf("source language: %w", err)
	}
	d, err := NormalizeTag(dest)
	if err != nil {
		return nil, fmt.Errorf("target language: %w", err)
	}
	return &Service{backend: b, src: s, dest: d, log: log}, nil
}

// Text translates text. The second result is false when text is empty or
// the backend failed or answered with nothing. Failures are not retried.
func (s *Service) Text(ctx context.Context, text string) (string, bool) {
	if text == "" {
		return "", false
	}

	out, err := s.backend.Translate(ctx, text, s.src, s.dest)
	if err != nil {
		s.log.WithError(err).WithField("text", abbreviate(text)).Debug("translation failed")
		return "", false
	}
	if out == "" {
		s.log.WithField("text", abbreviate(text)).Debug("translation empty")
		return "", false
	}
	return norm.NFC.String(out), true
}

func abbreviate(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
