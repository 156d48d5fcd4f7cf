// Package challenge provides the default anti-abuse solver. Solving is
// platform-bound and unavailable here, so every challenge resolves to an
// empty token; the protocol treats that as best-effort absence.
package challenge

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openvending/vending/internal/ports"
)

type Unsupported struct{}

var _ ports.ChallengeSolver = (*Unsupported)(nil)

func NewUnsupported() *Unsupported { return &Unsupported{} }

func (Unsupported) Solve(_ context.Context, flowName string, challenge map[string]string) string {
	logrus.WithFields(logrus.Fields{
		"component": "challenge",
		"flow":      flowName,
		"keys":      len(challenge),
	}).Debug("challenge solving unsupported, returning empty token")
	return ""
}
