package api

import (
	"encoding/json"

	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/domain"
)

type actionDTO struct {
	Kind        string   `json:"kind"`
	ScreenID    string   `json:"screenId,omitempty"`
	UIType      string   `json:"uiType,omitempty"`
	DelayMillis int      `json:"delayMillis,omitempty"`
	Context     [][]byte `json:"context,omitempty"`
	SrcScreenID string   `json:"srcScreenId,omitempty"`
}

func (a *actionDTO) toDomain() *domain.Action {
	if a == nil {
		return nil
	}
	kind := domain.ActionUnknown
	switch a.Kind {
	case "show":
		kind = domain.ActionShow
	case "delay":
		kind = domain.ActionDelay
	}
	return &domain.Action{
		Kind:        kind,
		ScreenID:    a.ScreenID,
		UIType:      domain.UIType(a.UIType),
		DelayMillis: a.DelayMillis,
		Context:     a.Context,
		SrcScreenID: a.SrcScreenID,
	}
}

func actionFromDomain(action *domain.Action) *actionDTO {
	if action == nil {
		return nil
	}
	return &actionDTO{
		Kind:        action.Kind.String(),
		ScreenID:    action.ScreenID,
		UIType:      string(action.UIType),
		DelayMillis: action.DelayMillis,
		Context:     action.Context,
		SrcScreenID: action.SrcScreenID,
	}
}

type screenDTO struct {
	ID        string          `json:"id"`
	UIType    string          `json:"uiType,omitempty"`
	Title     string          `json:"title,omitempty"`
	Action    *actionDTO      `json:"action,omitempty"`
	Component json.RawMessage `json:"component,omitempty"`
}

type flowViewDTO struct {
	Token        string         `json:"flowToken"`
	State        string         `json:"state"`
	Screen       *screenDTO     `json:"screen,omitempty"`
	HasError     bool           `json:"hasError,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Event        string         `json:"event,omitempty"`
	Result       map[string]any `json:"result"`
}

func flowViewFromDomain(view *application.FlowView) flowViewDTO {
	dto := flowViewDTO{
		Token:        view.Token,
		State:        string(view.State),
		HasError:     view.HasError,
		ErrorMessage: view.ErrorMessage,
		Event:        string(view.Event),
	}
	if view.Screen != nil {
		dto.Screen = &screenDTO{
			ID:        view.Screen.ID,
			UIType:    string(view.Screen.UIType),
			Title:     view.Screen.Title,
			Action:    actionFromDomain(view.Screen.Action),
			Component: view.Screen.Component,
		}
	}
	if view.Result != nil {
		dto.Result = view.Result.Map()
	}
	return dto
}
