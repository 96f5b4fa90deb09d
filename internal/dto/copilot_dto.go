package dto

import (
	"time"

	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/session"
)

type CreateSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=demo live"`
}

type CreateSessionResponse struct {
	Id        string    `json:"id"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

type AskRequest struct {
	SessionId string `json:"session_id" validate:"required,uuid"`
	Prompt    string `json:"prompt" validate:"required,min=2"`
}

type AskResponse struct {
	TurnId string            `json:"turn_id,omitempty"`
	Mode   string            `json:"mode"`
	Answer *aggregate.Answer `json:"answer"`
}

type SwitchModeRequest struct {
	SessionId string
	Mode      string `json:"mode" validate:"required,oneof=demo live"`
}

type SwitchModeResponse struct {
	Id string `json:"id"`
	// Cleared reports whether the transcript was reset by the switch.
	Mode    string `json:"mode"`
	Cleared bool   `json:"cleared"`
}

type PinInsightRequest struct {
	SessionId string
	TurnId    string `json:"turn_id" validate:"required,uuid"`
}

type PinInsightResponse struct {
	TurnId   string `json:"turn_id"`
	AnswerId string `json:"answer_id"`
}

type ExportSessionResponse struct {
	Export *session.Export `json:"export"`
}
