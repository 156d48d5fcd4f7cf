// Package sheet renders flow snapshots for the CLI. The engine only hands
// over parsed screens and result bundles; everything here is presentation.
package sheet

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/openvending/vending/internal/application"
)

func Render(view *application.FlowView) string {
	s := newStyles()

	lines := []string{
		s.title.Render("Purchase Flow"),
		s.header.Render(fmt.Sprintf("token: %s", view.Token)),
		s.state.Render(fmt.Sprintf("state: %s", view.State)),
	}

	if view.HasError {
		lines = append(lines, s.warning.Render(fmt.Sprintf("error: %s", view.ErrorMessage)))
	}
	if view.Event != application.FlowEventNone {
		lines = append(lines, s.warning.Render(fmt.Sprintf("pending event: %s", view.Event)))
	}

	if view.Screen != nil {
		screenLines := []string{
			s.screenID.Render(fmt.Sprintf("screen: %s", view.Screen.ID)),
			s.uiType.Render(fmt.Sprintf("type: %s", view.Screen.UIType)),
		}
		if view.Screen.Title != "" {
			screenLines = append(screenLines, s.value.Render(view.Screen.Title))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, screenLines...)))
	}

	if view.Result != nil && view.Result.Len() > 0 {
		resultLines := make([]string, 0, view.Result.Len())
		for _, key := range view.Result.Keys() {
			value, _ := view.Result.Get(key)
			resultLines = append(resultLines, fmt.Sprintf("%s %s",
				s.key.Render(key+":"), s.value.Render(fmt.Sprintf("%v", value))))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, resultLines...)))
	} else {
		lines = append(lines, s.empty.Render("no result yet"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
